package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 17, 18, 45, 0, 0, time.UTC)

type stubChatModel struct {
	content string
	err     error
	inputs  [][]*schema.Message
}

func (m *stubChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.content, nil), nil
}

func (m *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *stubChatModel) BindTools([]*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, chatModel model.ChatModel) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), chatModel, Config{Enabled: chatModel != nil})
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestHeuristic(t *testing.T) {
	// 2026-10-21 is a Wednesday, four days ahead.
	quiet := Heuristic(Request{Date: "2026-10-21", Time: "09:30"}, testNow)
	assert.Equal(t, 0.12, quiet.NoShowProbability)
	assert.Equal(t, LevelLow, quiet.Level)
	assert.False(t, quiet.PeakHour)
	assert.Equal(t, "heuristic", quiet.Source)

	peak := Heuristic(Request{Date: "2026-10-21", Time: "10:30"}, testNow)
	assert.True(t, peak.PeakHour)

	// Friday, late afternoon, more than two weeks ahead.
	risky := Heuristic(Request{Date: "2026-11-20", Time: "16:30"}, testNow)
	assert.Equal(t, 0.32, risky.NoShowProbability)
	assert.Equal(t, LevelHigh, risky.Level)

	bad := Heuristic(Request{Date: "soon", Time: "later"}, testNow)
	assert.Equal(t, baseNoShow, bad.NoShowProbability)
}

func TestAssessWithoutModelUsesHeuristic(t *testing.T) {
	svc := newTestService(t, nil)
	assert.False(t, svc.Enabled())

	req := Request{Date: "2026-10-21", Time: "10:30"}
	assert.Equal(t, Heuristic(req, testNow), svc.Assess(context.Background(), req))
}

func TestAssessParsesModelOutput(t *testing.T) {
	stub := &stubChatModel{content: "Here you go:\n{\"no_show_probability\": 0.42, \"peak_hour\": true, \"reason\": \"Late Friday slot\"}"}
	svc := newTestService(t, stub)
	require.True(t, svc.Enabled())

	got := svc.Assess(context.Background(), Request{Date: "2026-10-23", Time: "16:30", Specialization: "Dermatologist"})
	assert.Equal(t, Assessment{
		NoShowProbability: 0.42,
		PeakHour:          true,
		Level:             LevelHigh,
		Reason:            "Late Friday slot",
		Source:            "llm",
	}, got)

	require.Len(t, stub.inputs, 1)
	last := stub.inputs[0][len(stub.inputs[0])-1]
	assert.Contains(t, last.Content, "Friday")
	assert.Contains(t, last.Content, "Dermatologist")
}

func TestAssessFallsBackOnModelFailure(t *testing.T) {
	req := Request{Date: "2026-10-21", Time: "10:30"}

	failing := newTestService(t, &stubChatModel{err: errors.New("quota exceeded")})
	assert.Equal(t, Heuristic(req, testNow), failing.Assess(context.Background(), req))

	garbled := newTestService(t, &stubChatModel{content: "I cannot answer that"})
	assert.Equal(t, Heuristic(req, testNow), garbled.Assess(context.Background(), req))
}

func TestAssessClampsProbability(t *testing.T) {
	svc := newTestService(t, &stubChatModel{content: `{"no_show_probability": 3}`})
	got := svc.Assess(context.Background(), Request{Date: "2026-10-21", Time: "10:30"})
	assert.Equal(t, 1.0, got.NoShowProbability)
}

func TestRecommend(t *testing.T) {
	svc := newTestService(t, nil)

	got := svc.Recommend("2026-10-21", []string{"08:00", "08:30", "09:00", "10:00", "16:00"}, 2)
	assert.Equal(t, []string{"09:00", "10:00"}, got, "off-peak before peak, early and late slots last")

	assert.Len(t, svc.Recommend("2026-10-21", []string{"09:00"}, 3), 1)
	assert.Empty(t, svc.Recommend("2026-10-21", nil, 3))
}
