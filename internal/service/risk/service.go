package risk

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Config 控制风险评估服务的行为。
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// Service 使用大模型评估预约爽约风险，失败时回退到启发式规则。
type Service struct {
	enabled  bool
	assessor compose.Runnable[map[string]any, *schema.Message]
	timeout  time.Duration
	now      func() time.Time
}

// NewService 创建风险评估服务。chatModel 为空时只使用启发式规则。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	svc := &Service{
		enabled: cfg.Enabled && chatModel != nil,
		timeout: timeout,
		now:     time.Now,
	}
	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(assessorSystemPrompt),
		schema.UserMessage(assessorUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile risk assessor chain: %w", err)
	}
	svc.assessor = runnable
	return svc, nil
}

// Enabled 返回是否启用了大模型评估。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.assessor != nil
}

// Assess estimates the no-show risk of one slot.
func (s *Service) Assess(ctx context.Context, req Request) Assessment {
	fallback := Heuristic(req, s.clock())
	if !s.Enabled() {
		return fallback
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.assessor.Invoke(callCtx, map[string]any{
		"date":           req.Date,
		"time":           req.Time,
		"weekday":        weekday(req.Date),
		"specialization": orDash(req.Specialization),
		"problem":        orDash(req.Problem),
	})
	if err != nil {
		log.Printf("[risk] assessor invoke failed, use fallback: %v", err)
		return fallback
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return fallback
	}

	payload, err := parseAssessorOutput(msg.Content)
	if err != nil {
		log.Printf("[risk] assessor output parse failed, use fallback: %v", err)
		return fallback
	}

	p := clampProbability(payload.NoShowProbability)
	return Assessment{
		NoShowProbability: round2(p),
		PeakHour:          payload.PeakHour,
		Level:             levelFor(p),
		Reason:            strings.TrimSpace(payload.Reason),
		Source:            "llm",
	}
}

// Recommend orders free slots by heuristic risk, lowest first, and keeps the
// first n. Ties keep chronological order.
func (s *Service) Recommend(date string, free []string, n int) []string {
	now := s.clock()
	type scored struct {
		clock string
		p     float64
		peak  bool
	}
	ranked := make([]scored, 0, len(free))
	for _, clock := range free {
		a := Heuristic(Request{Date: date, Time: clock}, now)
		ranked = append(ranked, scored{clock: clock, p: a.NoShowProbability, peak: a.PeakHour})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].p != ranked[j].p {
			return ranked[i].p < ranked[j].p
		}
		return !ranked[i].peak && ranked[j].peak
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.clock)
	}
	return out
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}

type assessorPayload struct {
	NoShowProbability float64 `json:"no_show_probability"`
	PeakHour          bool    `json:"peak_hour"`
	Reason            string  `json:"reason"`
}

// parseAssessorOutput 解析大模型返回的 JSON。
func parseAssessorOutput(content string) (*assessorPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &assessorPayload{}
	if err := sonic.UnmarshalString(trimmed[start:end+1], payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func weekday(date string) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "-"
	}
	return day.Weekday().String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

const assessorSystemPrompt = "You estimate how likely a patient is to miss a clinic appointment. Consider the hour of day, the weekday, the specialty and the stated problem.\nReturn only one JSON object with the fields no_show_probability (number between 0 and 1), peak_hour (true when the slot falls in a busy clinic period) and reason (one short sentence). No other text."

const assessorUserPrompt = "Date: {date} ({weekday})\nTime: {time}\nSpecialty: {specialization}\nProblem: {problem}"
