package sqlgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"promo-data/internal/domain"
)

const (
	// NullToken 输出为 SQL NULL
	NullToken = "NULL"
	// SysdateToken 数据库当前时间
	SysdateToken = "sysdate"

	dateLayout   = "2006-01-02"
	oracleLayout = "2006-01-02 15:04:05"
)

// DateRole 决定日期的偏移与时刻
type DateRole int

const (
	// RoleStart 前一天 20:00:00
	RoleStart DateRole = iota + 1
	// RoleEnd 后一天 05:00:00
	RoleEnd
	// RoleDisplay 当天 20:00:00
	RoleDisplay
)

func (r DateRole) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleEnd:
		return "end"
	case RoleDisplay:
		return "display"
	}
	return "unknown"
}

// FormatValue 把任意值转成 SQL 字面量：
// nil / 空串 / "NULL" / NaN / 无法识别的类型 -> NULL；数字原样；字符串单引号转义后加引号；
// 已经是 to_date(...) 表达式的字符串原样透传。
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return NullToken
	case string:
		return formatString(x)
	case domain.Text:
		return formatString(string(x))
	case *string:
		if x == nil {
			return NullToken
		}
		return formatString(*x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	}
	return NullToken
}

func formatString(s string) string {
	t := strings.TrimSpace(s)
	if t == "" || strings.EqualFold(t, NullToken) {
		return NullToken
	}
	if strings.HasPrefix(t, "to_date(") {
		return t
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NullToken
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate 把 YYYY-MM-DD 按 role 偏移后渲染为 to_date(...)；空或无法解析返回 NULL
func FormatDate(s string, role DateRole) string {
	t, err := ParseDate(s)
	if err != nil {
		return NullToken
	}
	shifted, ok := shiftDate(t, role)
	if !ok {
		return NullToken
	}
	return toDate(shifted)
}

func shiftDate(t time.Time, role DateRole) (time.Time, bool) {
	switch role {
	case RoleStart:
		return t.AddDate(0, 0, -1).Add(20 * time.Hour), true
	case RoleEnd:
		return t.AddDate(0, 0, 1).Add(5 * time.Hour), true
	case RoleDisplay:
		return t.Add(20 * time.Hour), true
	}
	return time.Time{}, false
}

func toDate(t time.Time) string {
	return fmt.Sprintf("to_date('%s','YYYY-MM-DD HH24:MI:SS')", t.Format(oracleLayout))
}
