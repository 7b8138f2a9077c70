package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/idefend/internal/domain"
)

// MockLLM answers locally without calling any provider; useful for dev mode.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(_ context.Context, req domain.GenerateRequest) (domain.Reply, error) {
	var last string
	for i := len(req.Turns) - 1; i >= 0; i-- {
		if req.Turns[i].Role == domain.RoleUser {
			last = req.Turns[i].Text
			break
		}
	}
	return domain.Reply{
		Text: fmt.Sprintf("You asked: %q. This is general legal information, not legal advice; consult a licensed attorney for your situation.", last),
	}, nil
}
