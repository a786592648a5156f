package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/calman/internal/event"
	"github.com/hitoshi/calman/internal/model"
)

// EventLister はイベントハンドラが必要とする予定ストアのインターフェース。
type EventLister interface {
	List(ctx context.Context, tf event.Timeframe) ([]model.Event, error)
}

// EventsHandler は!eventsの実行ロジック。
type EventsHandler struct {
	events EventLister
}

// NewEventsHandler はEventsHandlerを生成する。
func NewEventsHandler(events EventLister) *EventsHandler {
	return &EventsHandler{events: events}
}

// List は!eventsを処理する。期間の指定がない場合はtodayを使用する。
// 未対応の期間トークンはストアに渡る前にここで拒否する。
func (h *EventsHandler) List(ctx context.Context, args []string, waID, phone string) (string, error) {
	token := string(event.TimeframeToday)
	if len(args) == 1 {
		token = args[0]
	}

	tf, ok := event.ParseTimeframe(token)
	if !ok {
		return "", model.NewInvalidTimeframeError(token, event.ValidTimeframeTokens)
	}

	listed, err := h.events.List(ctx, tf)
	if err != nil {
		return "", err
	}

	if len(listed) == 0 {
		return fmt.Sprintf("指定された期間（%s）に予定はありません。", tf), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 予定一覧（%s）: %d件\n", tf, len(listed))
	for i := range listed {
		b.WriteString("\n")
		b.WriteString(listed[i].Detailed())
		b.WriteString("\n")
	}
	return b.String(), nil
}
