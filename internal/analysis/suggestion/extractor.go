package suggestion

import (
	"regexp"
	"strings"

	"github.com/devcoregroup/lox/backend/internal/model/chat"
)

// Marker 是助手回复中按钮标记的前缀。
const Marker = "👉"

var buttonPattern = regexp.MustCompile(`👉\s*\[([^\]]+)\]`)

// Extract 从助手回复中取出按钮标签，并返回去除标记后的正文。
// 标签按出现顺序返回，重复项保留。
func Extract(text string) (string, []string) {
	var labels []string
	cleaned := text
	// 删除一个标记可能拼出新的标记（例如 "👉👉 [a][b]"），因此循环到不再匹配为止。
	for {
		matches := buttonPattern.FindAllStringSubmatch(cleaned, -1)
		if len(matches) == 0 {
			break
		}
		for _, m := range matches {
			labels = append(labels, m[1])
		}
		cleaned = buttonPattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned), labels
}

// HasMarkup 判断文本中是否至少包含一个按钮标记。
func HasMarkup(text string) bool {
	return buttonPattern.MatchString(text)
}

// LiveIndex 返回最后一条带按钮的机器人消息下标；会话结束或不存在时返回 -1。
func LiveIndex(messages []chat.Message, completed bool) int {
	if completed {
		return -1
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsBot() && HasMarkup(messages[i].Text) {
			return i
		}
	}
	return -1
}

// Contains 判断 label 是否是 text 中的某个按钮。
func Contains(text, label string) bool {
	_, labels := Extract(text)
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
