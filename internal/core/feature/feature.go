// Package feature 实现事件窗口到特征记录的纯函数计算。
// 特征只由完整窗口派生；对不完整窗口调用属于调用方契约违规，
// 返回 IncompleteWindowError 且绝不被吞掉。
package feature

import (
	"fmt"
	"strings"
	"time"

	"earnings-reversal-backtest/internal/core/model"
	"earnings-reversal-backtest/internal/util/dateutil"
)

// IncompleteWindowError 对不完整窗口计算特征
// 这是调用方 bug（应先过滤不完整窗口），不是数据问题。
type IncompleteWindowError struct {
	// Symbol 标的代码
	Symbol string
	// AnnouncementDate 财报公告日期
	AnnouncementDate time.Time
	// MissingLegs 缺失行情的窗口腿
	MissingLegs []string
}

func (e *IncompleteWindowError) Error() string {
	return fmt.Sprintf("对不完整窗口计算特征 %s@%s（缺失: %s），调用方必须先过滤",
		e.Symbol, dateutil.Format(e.AnnouncementDate), strings.Join(e.MissingLegs, ","))
}

// Compute 由完整事件窗口计算特征记录
// R1 = t1_close / t0_close - 1
// Gap2 = t2_open / t1_close - 1
// 两者均为带符号的小数收益率。行情中的 NaN/Inf 已由注入阶段拒绝，
// 此处不做额外校验。
func Compute(w *model.EventWindow) (*model.FeatureRecord, error) {
	if !w.IsComplete() {
		return nil, &IncompleteWindowError{
			Symbol:           w.Event.Symbol,
			AnnouncementDate: w.Event.AnnouncementDate,
			MissingLegs:      w.MissingLegs(),
		}
	}

	return &model.FeatureRecord{
		Window: w,
		R1:     w.T1Bar.Close/w.T0Bar.Close - 1,
		Gap2:   w.T2Bar.Open/w.T1Bar.Close - 1,
	}, nil
}
