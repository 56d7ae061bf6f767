package web

import (
	"html/template"
	"io/fs"
	"testing"
)

func TestEmbeddedTemplatesExist(t *testing.T) {
	templatesFS := GetTemplatesFS()

	requiredFiles := []string{
		"index.html",
		"admin/login.html",
		"admin/layout.html",
		"admin/dashboard.html",
	}

	for _, file := range requiredFiles {
		_, err := fs.Stat(templatesFS, file)
		if err != nil {
			t.Errorf("required template %q not found: %v", file, err)
		}
	}
}

func TestEmbeddedStaticFilesExist(t *testing.T) {
	staticFS := GetStaticFS()

	requiredFiles := []string{
		"css/portal.css",
		"css/admin.css",
		"js/dashboard.js",
	}

	for _, file := range requiredFiles {
		_, err := fs.Stat(staticFS, file)
		if err != nil {
			t.Errorf("required static file %q not found: %v", file, err)
		}
	}
}

func TestAdminTemplatesParse(t *testing.T) {
	tmpl, err := template.ParseFS(GetTemplatesFS(), "admin/layout.html", "admin/dashboard.html")
	if err != nil {
		t.Fatalf("failed to parse admin templates: %v", err)
	}
	if tmpl.Lookup("admin") == nil || tmpl.Lookup("content") == nil {
		t.Error("expected admin and content templates to be defined")
	}
}

func TestStaticFilesReadable(t *testing.T) {
	staticFS := GetStaticFS()

	content, err := fs.ReadFile(staticFS, "js/dashboard.js")
	if err != nil {
		t.Fatalf("failed to read js/dashboard.js: %v", err)
	}
	if len(content) == 0 {
		t.Error("js/dashboard.js is empty")
	}
}
