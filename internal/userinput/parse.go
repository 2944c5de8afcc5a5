// Package userinput reconciles the free-text user_input.md form into the
// project configuration file. Parsing is conservative: empty values and
// placeholder text are ignored, and the merge preserves every config field
// the form does not touch.
package userinput

import (
	"regexp"
	"strings"
)

// placeholderPhrase marks an unfilled form field.
const placeholderPhrase = "ここに入力"

var (
	exampleRe    = regexp.MustCompile(`[（(]例：.*?[）)]`)
	inputLineRe  = regexp.MustCompile(`^\s*-\s*ここに入力\d*:\s*(.*)$`)
	prefLineRe   = regexp.MustCompile(`^\s*-\s*都道府県:\s*(.*)$`)
	cityLineRe   = regexp.MustCompile(`^\s*-\s*市区町村:\s*(.*)$`)
	compNameRe   = regexp.MustCompile(`^\s*-\s*競合\d+\s*名前:\s*(.*)$`)
	compURLRe    = regexp.MustCompile(`^\s*-\s*URL\s*:\s*(.*)$`)
	compCatRe    = regexp.MustCompile(`^\s*-\s*カテゴリ:\s*(.*)$`)
	phoneLineRe  = regexp.MustCompile(`^\s*-\s*電話:\s*(.*)$`)
	emailLineRe  = regexp.MustCompile(`^\s*-\s*メール:\s*(.*)$`)
	purposeRe    = regexp.MustCompile(`^\s*-\s*目的:\s*(.*)$`)
	actionLineRe = regexp.MustCompile(`^\s*-\s*アクション:\s*(.*)$`)
)

// normalize strips example text and placeholders; the empty string means
// "not provided".
func normalize(value string) string {
	value = exampleRe.ReplaceAllString(value, "")
	value = strings.TrimSpace(value)
	if strings.Contains(value, placeholderPhrase) {
		return ""
	}
	return value
}

type competitor struct {
	name     string
	website  string
	category string
}

func (c competitor) empty() bool {
	return c.name == "" && c.website == "" && c.category == ""
}

// Parse extracts a configuration update fragment from the form text. The
// fragment mirrors the project-config.yaml structure; see Merge.
func Parse(text string) map[string]any {
	var (
		section      string
		companyName  string
		location     string
		prefecture   string
		city         string
		website      string
		businessName string
		offers       string
		phone        string
		email        string
		lpPurpose    string
		lpAction     string
		designPref   string
		ngNote       string
		targetNote   string
		features     []string
		competitors  []competitor
	)

	var current *competitor
	flushCompetitor := func() {
		if current != nil && !current.empty() {
			competitors = append(competitors, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")

		if strings.HasPrefix(line, "### ") {
			if strings.HasPrefix(section, "2-3.") {
				flushCompetitor()
			}
			section = strings.TrimSpace(strings.TrimPrefix(line, "### "))
			continue
		}

		switch {
		case strings.HasPrefix(section, "1-1."): // 企業名
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				companyName = normalize(m[1])
			}
		case strings.HasPrefix(section, "1-2."): // 営業地域
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				location = normalize(m[1])
			} else if m := prefLineRe.FindStringSubmatch(line); m != nil {
				prefecture = normalize(m[1])
			} else if m := cityLineRe.FindStringSubmatch(line); m != nil {
				city = normalize(m[1])
			}
		case strings.HasPrefix(section, "1-3."): // 公式サイトURL
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				website = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-1."): // サービス/ブランド名
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				businessName = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-2."): // 強み・特徴
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				if v := normalize(m[1]); v != "" {
					features = append(features, v)
				}
			}
		case strings.HasPrefix(section, "2-3."): // 競合候補
			if m := compNameRe.FindStringSubmatch(line); m != nil {
				flushCompetitor()
				current = &competitor{name: normalize(m[1])}
			} else if m := compURLRe.FindStringSubmatch(line); m != nil {
				if current == nil {
					current = &competitor{}
				}
				current.website = normalize(m[1])
			} else if m := compCatRe.FindStringSubmatch(line); m != nil {
				if current == nil {
					current = &competitor{}
				}
				current.category = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-4."): // キャンペーン・特別オファー
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				offers = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-5."): // 連絡先
			if m := phoneLineRe.FindStringSubmatch(line); m != nil {
				phone = normalize(m[1])
			} else if m := emailLineRe.FindStringSubmatch(line); m != nil {
				email = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-6."): // LPの目的・アクション
			if m := purposeRe.FindStringSubmatch(line); m != nil {
				lpPurpose = normalize(m[1])
			} else if m := actionLineRe.FindStringSubmatch(line); m != nil {
				lpAction = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-7."): // デザイン傾向
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				designPref = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-8."): // 掲載NG
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				ngNote = normalize(m[1])
			}
		case strings.HasPrefix(section, "2-9."): // ターゲット顧客メモ
			if m := inputLineRe.FindStringSubmatch(line); m != nil {
				targetNote = normalize(m[1])
			}
		}
	}
	if strings.HasPrefix(section, "2-3.") {
		flushCompetitor()
	}

	update := map[string]any{}
	setPath := func(value string, path ...string) {
		if value == "" {
			return
		}
		node := update
		for _, key := range path[:len(path)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}

	setPath(companyName, "company", "name")
	setPath(location, "company", "location")
	setPath(prefecture, "company", "prefecture")
	setPath(city, "company", "city")
	setPath(businessName, "company", "business_name")
	setPath(website, "company", "contact", "website")
	setPath(phone, "company", "contact", "phone")
	setPath(email, "company", "contact", "email")
	setPath(offers, "company", "services", "special_offers")
	setPath(lpPurpose, "landing_page", "purpose")
	setPath(lpAction, "landing_page", "target_action")
	setPath(designPref, "landing_page", "design_preference")
	setPath(targetNote, "target_customers", "notes")

	if len(features) > 0 {
		company, _ := update["company"].(map[string]any)
		if company == nil {
			company = map[string]any{}
			update["company"] = company
		}
		company["key_features"] = toAnySlice(features)
	}

	if len(competitors) > 0 {
		list := make([]any, 0, len(competitors))
		for _, c := range competitors {
			list = append(list, map[string]any{
				"name":     c.name,
				"website":  c.website,
				"category": c.category,
			})
		}
		update["competitors"] = map[string]any{"target_companies": list}
	}

	if ngNote != "" {
		update["quality_control"] = map[string]any{
			"mandatory_reviews": []any{"掲載NG・避けたい表現: " + ngNote},
		}
	}

	return update
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
