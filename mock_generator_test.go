package textgen

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Response), args.Error(1)
}

func mockResponse(content string) *Response {
	return &Response{
		Text:     []Message{{Role: RoleAi, Content: content}},
		Logprobs: []float64{},
		Config:   DefaultConfig(),
	}
}
