package usecase

import "strings"

// markdownReserved lists the characters Telegram MarkdownV2 requires to be
// escaped outside of entities.
const markdownReserved = ".-!+#*_()~`|[]<>={}"

// EscapeMarkdown escapes text for MarkdownV2. Backslash is not reserved, so
// the result is escaped again if passed back in; escape raw text exactly once.
func EscapeMarkdown(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	// reserved characters are ASCII, so bytes of multibyte or invalid
	// UTF-8 sequences are copied unchanged
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(markdownReserved, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
