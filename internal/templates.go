package internal

import (
	"bytes"
	"html/template"
)

// The dashboard's pages are deliberately plain: a handful of inline
// templates, no asset pipeline. Presentation is not where this app earns
// its keep.
var pageTemplates = template.Must(template.New("pages").Parse(pagesHTML))

func renderPage(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pagesHTML = `
{{define "header"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Metaplace</title></head>
<body>
<nav><a href="/">Home</a> | <a href="/build/">Builds</a> | <a href="/tiers/">Tiers</a> | <a href="/transactions/">Transactions</a></nav>
{{end}}

{{define "footer"}}</body></html>{{end}}

{{define "index"}}{{template "header"}}
<h1>Metaplace</h1>
<p>Information about the marketplace.</p>
{{template "footer"}}{{end}}

{{define "build"}}{{template "header"}}
<h1>Builds</h1>
<p>Overall: {{if .All}}passing{{else}}failing{{end}} (as of {{.When}})</p>
<table>
{{range .Jobs}}<tr class="{{if .Passing}}success{{else}}important{{end}}"><td>{{.Name}}</td><td>{{if .Passing}}passing{{else}}failing{{end}}</td></tr>
{{end}}</table>
{{template "footer"}}{{end}}

{{define "tiers"}}{{template "header"}}
<h1>Tiers{{if .Env}} ({{.Env}}){{end}}</h1>
{{if .Tiers}}<table>
<tr><th>Tier</th>{{range .RegionOrder}}<th>{{index $.Regions .}}</th>{{end}}</tr>
{{range .Tiers}}{{$tier := .}}<tr><td>{{$tier.Name}}</td>
{{range $.RegionOrder}}{{$p := index $tier.Prices .}}<td>{{if $p.Price}}{{$p.Price}} {{$p.Currency}} ({{index $.Methods $p.Method}}){{end}}</td>{{end}}
</tr>{{end}}
</table>{{else}}<p>Pick an environment: <a href="/tiers/dev/">dev</a> <a href="/tiers/stage/">stage</a> <a href="/tiers/prod/">prod</a></p>{{end}}
{{template "footer"}}{{end}}

{{define "transactions"}}{{template "header"}}
<h1>Transactions{{if .Env}} ({{.Env}}, {{.Date}}){{end}}</h1>
<p>{{range .Dates}}<a href="/transactions/dev/{{.Date}}/">{{.Label}}</a> {{end}}</p>
{{if .Stats}}
<h2>Stats</h2>
<p>Rows: {{.Stats.RowCount}}{{if .Stats.MeanLatencySeconds}}, mean latency {{.Stats.MeanLatencySeconds}}s{{end}}</p>
<table>
{{range .Stats.Statuses}}{{$info := index $.Statuses .Status}}<tr><td>{{.Status}}{{if $info.Label}} ({{$info.Label}}){{end}}</td><td>{{.Percent}}%</td></tr>
{{end}}</table>
<table>
{{range $currency, $stats := .Stats.Currencies}}<tr><td>{{$currency}}</td><td>{{$stats.Count}}</td><td>{{$stats.Mean}}</td></tr>
{{end}}</table>
{{end}}
{{template "footer"}}{{end}}

{{define "debug"}}{{template "header"}}
<h1>Debug</h1>
<table>
{{range $name, $values := .Headers}}<tr><td>{{$name}}</td><td>{{range $values}}{{.}} {{end}}</td></tr>
{{end}}</table>
{{template "footer"}}{{end}}

{{define "error"}}{{template "header"}}
<h1>{{.Code}}</h1>
<p>{{.Message}}</p>
{{template "footer"}}{{end}}
`
