// Package templates renders the HTML pages served by the web server.
package templates

// Option is one entry of a <select>.
type Option struct {
	Value string
	Label string
}

// Dialects are offered in the order the form lists them.
var Dialects = []Option{
	{"postgresql", "PostgreSQL"},
	{"mysql", "MySQL"},
	{"sqlserver", "SQL Server"},
	{"oracle", "Oracle"},
}

// CaseTransforms are the value transforms the form offers.
var CaseTransforms = []Option{
	{"none", "None"},
	{"uppercase", "UPPERCASE"},
	{"lowercase", "lowercase"},
}

// UploadForm holds the values the form is pre-filled with.
type UploadForm struct {
	TableName     string
	Dialect       string
	CaseTransform string
}
