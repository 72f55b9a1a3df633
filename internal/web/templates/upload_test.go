package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestUploadPage(t *testing.T) {
	var buf bytes.Buffer
	err := UploadPage(UploadForm{
		TableName:     `people"><script>`,
		Dialect:       "mysql",
		CaseTransform: "uppercase",
	}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`action="/upload/"`,
		`name="file"`,
		`<option value="mysql" selected>MySQL</option>`,
		`<option value="uppercase" selected>UPPERCASE</option>`,
		`value="people&#34;&gt;&lt;script&gt;"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, `people"><script>`) {
		t.Error("table name was not escaped")
	}
}

func TestUploadPageCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := UploadPage(UploadForm{}).Render(ctx, &buf); err == nil {
		t.Fatal("expected context error")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written after cancellation")
	}
}
