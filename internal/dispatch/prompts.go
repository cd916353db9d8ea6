package dispatch

// Prompts is the table of spoken prompt texts. A Prompts value is treated as
// immutable once handed to a [Dispatcher]; hot reloads install a fresh table
// rather than mutating the current one.
type Prompts struct {
	// Screen prompts, spoken when the corresponding screen is entered.
	Idle         string
	BackToIdle   string
	HoldHand     string
	MeasureReady string
	Measuring    string
	Success      string
	Failure      string
	TagRead      string
	TagWrite     string
	Done         string

	// Diagnostics maps failure event codes to a spoken diagnostic that
	// replaces the generic Failure prompt. Codes without an entry fall back
	// to Failure.
	Diagnostics map[Code]string
}

// DefaultPrompts returns the built-in Japanese prompt table.
func DefaultPrompts() Prompts {
	return Prompts{
		Idle:         "待機中です。タグをかざしてね。",
		BackToIdle:   "待機画面に戻ります。",
		HoldHand:     "タグを検出しました。センサーに手をかざしてね。",
		MeasureReady: "計測の準備をします。",
		Measuring:    "計測を開始します。",
		Success:      "計測成功！",
		Failure:      "エラーが発生しました。もう一度お願いします。",
		TagRead:      "タグを読み込みます。",
		TagWrite:     "タグに書き込みます。",
		Done:         "完了しました。",
		Diagnostics: map[Code]string{
			3:  "このタグは使えません。",
			4:  "タグの読み出しに失敗しました。",
			5:  "同じタグが続けて読み込まれました。",
			8:  "計測がタイムアウトしました。",
			11: "タグが見つかりませんでした。",
			13: "書き込みを中断しました。",
			14: "データが一致しません。",
		},
	}
}

// diagnostic returns the failure prompt for code, falling back to the
// generic failure text.
func (p Prompts) diagnostic(code Code) string {
	if text, ok := p.Diagnostics[code]; ok && text != "" {
		return text
	}
	return p.Failure
}

// AllTexts returns every distinct prompt text in the table, in a stable
// order. Used by the bake tool to pre-synthesize the full prompt set.
func (p Prompts) AllTexts() []string {
	texts := []string{
		p.Idle, p.BackToIdle, p.HoldHand, p.MeasureReady, p.Measuring,
		p.Success, p.Failure, p.TagRead, p.TagWrite, p.Done,
	}
	for c := Code(0); c <= MaxCode; c++ {
		if text, ok := p.Diagnostics[c]; ok {
			texts = append(texts, text)
		}
	}

	seen := make(map[string]bool, len(texts))
	out := texts[:0]
	for _, t := range texts {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
