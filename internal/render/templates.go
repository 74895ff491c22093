package render

import "html/template"

const layoutHead = `{{define "head"}}<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{end}}`

const landingPage = `{{define "landing"}}{{template "head" .}}<title>{{.Title}}{{with .Brand}} | {{.}}{{end}}</title>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Intro}}</p>
</main>
</body>
</html>
{{end}}`

const contentPage = `{{define "content"}}{{template "head" .}}<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<link rel="canonical" href="{{.CanonicalPath}}">
<meta property="og:type" content="product">
<meta property="og:title" content="{{.OGTitle}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:locale" content="{{.Lang}}">
{{- if .ImageURL}}
<meta property="og:image" content="{{.ImageURL}}">
{{- end}}
<script type="application/ld+json">{{.StructuredData}}</script>
</head>
<body>
<main>
<article>
{{.Body}}
</article>
{{- if .TrackPath}}
<p><button type="button" id="cta">{{.CTALabel}}</button></p>
<script>
document.getElementById("cta").addEventListener("click", function () {
  fetch({{.TrackPath}}, {
    method: "POST",
    keepalive: true,
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({identity: {{.Identity}}, region: {{.Region}}, timestamp: new Date().toISOString()})
  });
});
</script>
{{- end}}
{{- if .Related}}
<nav>
<h2>{{.RelatedHeading}}</h2>
<ul>
{{- range .Related}}
<li><a href="{{.Href}}">{{.Text}}</a></li>
{{- end}}
</ul>
</nav>
{{- end}}
</main>
<footer><small>{{.Footer}}</small></footer>
</body>
</html>
{{end}}`

const notFoundPage = `{{define "notfound"}}{{template "head" .}}<title>404 | {{.Title}}</title>
<meta name="robots" content="noindex">
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
<p>{{.SuggestionLabel}}:</p>
<ul>
{{- range .Suggestions}}
<li><a href="{{.Href}}">{{.Text}}</a></li>
{{- end}}
</ul>
</main>
</body>
</html>
{{end}}`

const errorPage = `{{define "error"}}{{template "head" .}}<title>500 | {{.Title}}</title>
<meta name="robots" content="noindex">
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</main>
</body>
</html>
{{end}}`

var pages = template.Must(template.New("pages").Parse(
	layoutHead + landingPage + contentPage + notFoundPage + errorPage,
))
