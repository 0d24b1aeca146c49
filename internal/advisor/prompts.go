package advisor

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"tietkiem/internal/core"
)

const noDeadline = "Chưa xác định"

func vnd(amount float64) string {
	return core.FormatCurrency(amount)
}

func buildAnalysisPrompt(data core.FinancialData) string {
	rate := 0.0
	if data.TotalIncome > 0 {
		rate = (data.TotalIncome - data.TotalExpense) / data.TotalIncome * 100
	}

	var b strings.Builder
	b.WriteString("Bạn là chuyên gia tư vấn tài chính cá nhân. Hãy phân tích tình hình tài chính sau và đưa ra lời khuyên cụ thể bằng tiếng Việt:\n\n")
	fmt.Fprintf(&b, "📊 TÌNH HÌNH TÀI CHÍNH (%d tháng gần đây):\n", data.PeriodMonths)
	fmt.Fprintf(&b, "- Tổng thu nhập: %s\n", vnd(data.TotalIncome))
	fmt.Fprintf(&b, "- Tổng chi tiêu: %s\n", vnd(data.TotalExpense))
	fmt.Fprintf(&b, "- Chi tiêu trung bình/tháng: %s\n", vnd(data.MonthlyAvgExpense))
	fmt.Fprintf(&b, "- Tiền tiết kiệm hiện tại: %s\n", vnd(data.CurrentSavings))
	fmt.Fprintf(&b, "- Tỷ lệ tiết kiệm: %.1f%%\n", rate)

	if len(data.ExpenseByCategory) > 0 {
		b.WriteString("\n🧾 CHI TIÊU THEO DANH MỤC:\n")
		for _, name := range sortedKeys(data.ExpenseByCategory) {
			fmt.Fprintf(&b, "- %s: %s\n", name, vnd(data.ExpenseByCategory[name]))
		}
	}

	b.WriteString("\n🎯 MỤC TIÊU TIẾT KIỆM:\n")
	if len(data.SavingsGoals) == 0 {
		b.WriteString("(Chưa có mục tiêu nào)\n")
	}
	for i, g := range data.SavingsGoals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Name)
		fmt.Fprintf(&b, "   - Mục tiêu: %s\n", vnd(g.TargetAmount))
		fmt.Fprintf(&b, "   - Đã có: %s\n", vnd(g.CurrentAmount))
		fmt.Fprintf(&b, "   - Còn thiếu: %s\n", vnd(g.TargetAmount-g.CurrentAmount))
		fmt.Fprintf(&b, "   - Thời hạn: %s\n", deadlineText(g.Deadline))
	}

	b.WriteString(`
HÃY PHÂN TÍCH VÀ TƯ VẤN:
1. Đánh giá tình hình tài chính hiện tại (điểm mạnh/yếu)
2. Tỷ lệ tiết kiệm có hợp lý không? (Chuẩn khuyến nghị: 20-30%)
3. Khả năng đạt được các mục tiêu tiết kiệm
4. Gợi ý số tiền nên tiết kiệm mỗi tháng cho từng mục tiêu
5. Cảnh báo rủi ro (nếu có)
6. 3 hành động cụ thể nên làm ngay

Trả lời ngắn gọn, súc tích, dễ hiểu, sử dụng emoji phù hợp.
`)
	return b.String()
}

// monthsLeft approximates whole months to the deadline, at least 1.
// It returns 0 when the goal has no deadline.
func monthsLeft(deadline core.Date, now time.Time) int {
	if deadline.IsEmpty() {
		return 0
	}
	return max(1, deadline.DaysUntil(now)/30)
}

func buildPlanPrompt(goal core.GoalBrief, in core.PlanInput, now time.Time) string {
	available := in.MonthlyIncome - in.MonthlyExpense

	var b strings.Builder
	b.WriteString("Bạn là chuyên gia lập kế hoạch tài chính. Hãy tạo kế hoạch tiết kiệm chi tiết cho mục tiêu sau bằng tiếng Việt:\n\n")
	fmt.Fprintf(&b, "🎯 MỤC TIÊU: %s\n", goal.Name)
	fmt.Fprintf(&b, "- Số tiền cần đạt: %s\n", vnd(goal.TargetAmount))
	fmt.Fprintf(&b, "- Đã tiết kiệm: %s\n", vnd(goal.CurrentAmount))
	fmt.Fprintf(&b, "- Còn thiếu: %s\n", vnd(goal.TargetAmount-goal.CurrentAmount))
	fmt.Fprintf(&b, "- Thời hạn: %s\n", deadlineText(goal.Deadline))
	if m := monthsLeft(goal.Deadline, now); m > 0 {
		fmt.Fprintf(&b, "- Số tháng còn lại: %d\n", m)
	}

	b.WriteString("\n💰 TÌNH HÌNH TÀI CHÍNH:\n")
	fmt.Fprintf(&b, "- Thu nhập/tháng: %s\n", vnd(in.MonthlyIncome))
	fmt.Fprintf(&b, "- Chi tiêu/tháng: %s\n", vnd(in.MonthlyExpense))
	fmt.Fprintf(&b, "- Còn dư/tháng: %s\n", vnd(available))

	if len(in.OtherGoals) > 0 {
		b.WriteString("\n📌 CÁC MỤC TIÊU KHÁC:\n")
		for _, g := range in.OtherGoals {
			fmt.Fprintf(&b, "- %s: còn thiếu %s\n", g.Name, vnd(g.TargetAmount-g.CurrentAmount))
		}
	}

	b.WriteString(`
HÃY TẠO KẾ HOẠCH:
1. Số tiền nên tiết kiệm mỗi tháng (thực tế và khả thi)
2. Timeline cụ thể (từng milestone)
3. Chiến lược tối ưu hóa chi tiêu để đạt mục tiêu
4. Dự phòng rủi ro (nếu thu nhập giảm hoặc chi tiêu tăng)
5. Động viên và tips giữ động lực

Trả lời bằng tiếng Việt, súc tích, dễ hiểu, có emoji.
`)
	return b.String()
}

func buildAdvicePrompt(question string, extra map[string]any) string {
	prompt := "Bạn là chuyên gia tài chính cá nhân. Trả lời ngắn gọn bằng tiếng Việt:\n\n" + question
	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			prompt += "\n\nBối cảnh: " + string(raw)
		}
	}
	return prompt
}

func deadlineText(d core.Date) string {
	if d.IsEmpty() {
		return noDeadline
	}
	return core.FormatDate(d)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// largest amount first, ties by name
	slices.SortFunc(keys, func(a, b string) int {
		if m[a] != m[b] {
			if m[a] > m[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}
