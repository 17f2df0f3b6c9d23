package templates

import (
	"embed"
	"html/template"

	"zest/internal/config"
)

//go:embed *.html
var htmlFiles embed.FS

var Home,
	Results *template.Template

var clarityProject string

func Init(cfg *config.Config, siteAssetPath string) error {
	funcs := template.FuncMap{
		"SiteAssetPath": func() string { return siteAssetPath },
		"ClarityScript": ClarityScript,
	}
	tmpls, err := template.New("all").Funcs(funcs).ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Home = ensure(tmpls, "home.html")
	Results = ensure(tmpls, "results")

	clarityProject = cfg.Clarity.ProjectID
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}

// ClarityScript generates the Microsoft Clarity tracking script HTML
func ClarityScript() template.HTML {
	if clarityProject == "" {
		return ""
	}

	script := `<script type="text/javascript">
    (function(c,l,a,r,i,t,y){
        c[a]=c[a]||function(){(c[a].q=c[a].q||[]).push(arguments)};
        t=l.createElement(r);t.async=1;t.src="https://www.clarity.ms/tag/"+i;
        y=l.getElementsByTagName(r)[0];y.parentNode.insertBefore(t,y);
    })(window, document, "clarity", "script", "` + template.JSEscapeString(clarityProject) + `");
</script>`

	return template.HTML(script)
}
