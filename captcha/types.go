package captcha

// Style 验证码类型
type Style string

const (
	StyleMath   Style = "math"   // 数学运算
	StyleRiddle Style = "riddle" // 问答
	StyleImage  Style = "image"  // 图片验证码

	// 兼容旧配置的图片类型别名
	StyleBasic Style = "basic"
	StyleAlpha Style = "alpha"
)

// Challenge 一次验证的问题与答案
//
// Answer 只在 NewChallenge 内部用于计算哈希，不会被持久化。
type Challenge struct {
	Prompt string
	Answer string
}

// Issued 返回给客户端的已渲染验证码
type Issued struct {
	Group       string `json:"group"`
	Style       Style  `json:"style"`
	HTML        string `json:"html"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"-"`
}

// Status 会话计数与晋升状态
type Status struct {
	Group        string `json:"group"`
	ValidCount   int    `json:"validCount"`
	InvalidCount int    `json:"invalidCount"`
	Promoted     bool   `json:"promoted"`
}
