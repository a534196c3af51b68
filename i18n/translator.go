package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides values substituted into {placeholders} of the message (for
// example "id" or "name").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var messagesEN = map[string]string{
	"invalid_namespace":      "invalid namespace {namespace} for {id}: segment {segment} is not an identifier",
	"invalid_name":           "invalid name {name} for {id}",
	"conflicting_override":   "conflicting override for {id}: {existing} already registered, got {requested}",
	"registry_frozen":        "override registry is frozen",
	"unknown_type":           "unknown type {id}",
	"invalid_descriptor":     "invalid descriptor for {id}: {reason}",
	"name_collision":         "name collision: {name} is claimed by {first} and {second}",
	"unsupported_recursion":  "unsupported recursion through {id} without a named boundary: {path}",
	"invalid_union_nesting":  "union {id} directly contains union {branch}",
	"duplicate_union_branch": "union {id} contains {branch} more than once",
	"invalid_fixed_size":     "fixed {id} has invalid size {size}",
	"duplicate_field":        "record {id} declares field {field} more than once",
	"invalid_enum":           "enum {id}: {reason}",
}

var messagesJA = map[string]string{
	"invalid_namespace":      "{id} の名前空間 {namespace} が不正です: セグメント {segment} は識別子ではありません",
	"invalid_name":           "{id} の名前 {name} が不正です",
	"conflicting_override":   "{id} の上書きが競合しています: 登録済み {existing}、指定 {requested}",
	"registry_frozen":        "上書きレジストリは凍結されています",
	"unknown_type":           "未知の型です: {id}",
	"invalid_descriptor":     "{id} の型記述が不正です: {reason}",
	"name_collision":         "名前が衝突しています: {name} を {first} と {second} が要求しています",
	"unsupported_recursion":  "名前付きの境界なしに {id} を再帰しています: {path}",
	"invalid_union_nesting":  "共用体 {id} が共用体 {branch} を直接含んでいます",
	"duplicate_union_branch": "共用体 {id} に {branch} が重複しています",
	"invalid_fixed_size":     "固定長型 {id} のサイズ {size} が不正です",
	"duplicate_field":        "レコード {id} にフィールド {field} が重複しています",
	"invalid_enum":           "列挙型 {id}: {reason}",
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	dict := messagesEN
	if t.lang == "ja" {
		dict = messagesJA
	}
	msg, ok := dict[code]
	if !ok {
		return code
	}
	return expand(msg, data)
}

// expand replaces {key} placeholders with data values. Unknown keys are left
// untouched.
func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
