package respond

import "regexp"

var (
	// API キーを運ぶクエリパラメータ
	keyParamPattern = regexp.MustCompile(`(?i)\b(api_key|apikey|key|token|access_token)=[^&\s"]+`)

	bearerPattern = regexp.MustCompile(`(?i)\b(bearer|token)\s+[A-Za-z0-9._~+/=-]{8,}`)

	userinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@/\s]+)@`)
)

// SanitizeError masks credentials that upstream errors may embed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	// クエリパラメータ、Bearer トークン、URL のパスワードをマスク
	msg = keyParamPattern.ReplaceAllString(msg, "$1=****")
	msg = bearerPattern.ReplaceAllString(msg, "$1 ****")
	msg = userinfoPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
