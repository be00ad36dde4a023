package ui

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(tmplBase))

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body data-layout="{{.Layout}}" data-snapshot="{{.SnapshotID}}">
<nav>
  <span class="brand">{{.Title}}</span>
  <form id="filter" method="get" action="/">
    <input type="search" name="q" value="{{.Query}}" placeholder="filter by id, file or exit code" autocomplete="off">
    <input type="hidden" name="layout" value="{{.Layout}}">
  </form>
  <button id="refresh" type="button">Refresh</button>
  <span class="meta">{{if .FetchedAt}}{{.Count}} runs from {{.Endpoint}} at {{.FetchedAt}}{{else}}not loaded yet{{end}}</span>
</nav>
<main>
{{.Activity}}
{{if eq .Layout "cards"}}<div id="runs" class="cards">{{.Rows}}</div>
{{else}}<table class="runs">
<thead>{{.Header}}</thead>
<tbody id="runs">{{.Rows}}</tbody>
</table>
{{end}}
</main>
<script src="/static/app.js"></script>
</body>
</html>
{{end}}`
