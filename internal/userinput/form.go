package userinput

import _ "embed"

// FormTemplate is the blank input form written by the init command. Its
// section numbering must stay in sync with Parse.
//
//go:embed form.md
var FormTemplate []byte
