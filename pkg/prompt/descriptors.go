package prompt

import (
	"fmt"
	"time"

	"poster/pkg/proto"
	"poster/pkg/randx"
)

// TimeOfDayTone returns the register for one of six bands across the day.
func TimeOfDayTone(hour int) string {
	switch {
	case hour >= 5 && hour < 9:
		return "早朝。まだ眠気が残る、ぼんやりした声"
	case hour >= 9 && hour < 12:
		return "午前。エンジンがかかってきた、テンポのいい実況"
	case hour >= 12 && hour < 15:
		return "昼どき。休憩中のゆるい空気"
	case hour >= 15 && hour < 18:
		return "夕方前。疲れが出てきて、少し愚痴っぽい"
	case hour >= 18 && hour < 22:
		return "夜。一日をふりかえる落ち着いたトーン"
	default:
		return "深夜。静かで、ひとりごとのような小さな声"
	}
}

// Season returns a meteorological season descriptor for month.
func Season(month time.Month) string {
	switch month {
	case time.March, time.April, time.May:
		return "春。花粉と桜、日差しがやわらかい"
	case time.June, time.July, time.August:
		return "夏。汗だく、冷たい飲み物が恋しい"
	case time.September, time.October, time.November:
		return "秋。夕暮れが早く、少しさみしい"
	case time.December, time.January, time.February:
		return "冬。手がかじかむ、白い息"
	default:
		return ""
	}
}

// WeekdayMood returns the fixed mood of each weekday.
func WeekdayMood(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "月曜。週明けで荷物が山積み"
	case time.Tuesday:
		return "火曜。ペースがつかめてきた"
	case time.Wednesday:
		return "水曜。週の折り返し、ちょっと中だるみ"
	case time.Thursday:
		return "木曜。疲れがたまってくる"
	case time.Friday:
		return "金曜。週末が見えて少し浮かれている"
	case time.Saturday:
		return "土曜。在宅の人が多くて配達がはかどる"
	case time.Sunday:
		return "日曜。世間は休み、自分は仕事"
	default:
		return ""
	}
}

// EnergyInstruction returns the energy-driven instruction, empty when neutral.
func EnergyInstruction(energy int) string {
	switch {
	case energy < 20:
		return "体力の限界。短く、ぐったりした言葉で"
	case energy <= 40:
		return "疲れている。少し弱音まじりで"
	case energy > 80:
		return "元気いっぱい。前向きで明るく"
	default:
		return ""
	}
}

// MoodColor returns the phrase that colors the post for mood.
func MoodColor(mood proto.Mood) string {
	switch mood {
	case proto.MoodHappy:
		return "うれしさがにじむ、明るい色"
	case proto.MoodNeutral:
		return "ふだんどおりの、淡々とした色"
	case proto.MoodTired:
		return "くたびれた、くすんだ色"
	case proto.MoodLonely:
		return "誰かを思う、少しさみしい色"
	case proto.MoodExcited:
		return "わくわくが止まらない、弾む色"
	case proto.MoodAngry:
		return "むっとしている、とがった色"
	case proto.MoodFrustrated:
		return "思いどおりにいかない、もどかしい色"
	case proto.MoodProud:
		return "ちょっと誇らしい、胸を張る色"
	case proto.MoodMelancholy:
		return "理由もなく切ない、夕暮れの色"
	case proto.MoodPlayful:
		return "ふざけたくなる、いたずらっぽい色"
	case proto.MoodRelieved:
		return "ほっと肩の力が抜けた色"
	case proto.MoodAnxious:
		return "そわそわと落ち着かない色"
	default:
		return ""
	}
}

// numberTemplates make the text concrete.
//
//nolint:gochecknoglobals // static templates
var numberTemplates = []struct {
	format string
	lo, hi int
}{
	{"荷物%d個", 20, 160},
	{"%d階まで階段", 2, 12},
	{"休憩%d分", 5, 45},
}

// ConcreteNumbers returns one or two distinct concrete quantities.
func ConcreteNumbers(rng randx.Source) []string {
	count := randx.IntRange(rng, 1, 2)
	order := randx.Shuffled(rng, []int{0, 1, 2})
	out := make([]string, 0, count)
	for _, idx := range order[:count] {
		t := numberTemplates[idx]
		out = append(out, fmt.Sprintf(t.format, randx.IntRange(rng, t.lo, t.hi)))
	}
	return out
}

//nolint:gochecknoglobals // static style lists
var (
	punctuationStyles = []string{
		"句読点は少なめに",
		"「…」を一度だけ使う",
		"「!」を一度だけ使う",
		"最後は句点で終える",
	}
	sentenceEndings = []string{
		"「〜だなあ」で終える",
		"「〜かも」で終える",
		"体言止めにする",
		"言い切りで終える",
	}
)

// PunctuationStyle draws a punctuation instruction.
func PunctuationStyle(rng randx.Source) string {
	return randx.Pick(rng, punctuationStyles)
}

// SentenceEnding draws a sentence-ending instruction.
func SentenceEnding(rng randx.Source) string {
	return randx.Pick(rng, sentenceEndings)
}
