package output

import (
	"bytes"
	"context"
	"os"
	"testing"
)

func TestWithPrinter_FromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		p := FromContext(WithPrinter(context.Background(), &buf, true))
		if p.Writer() != &buf {
			t.Error("Writer() should return the buffer passed to WithPrinter")
		}
		if !p.JSONMode() {
			t.Error("JSONMode() = false, want true")
		}
	})

	t.Run("default to stdout when not set", func(t *testing.T) {
		t.Parallel()
		p := FromContext(context.Background())
		if p.Writer() != os.Stdout {
			t.Error("Writer() should default to os.Stdout")
		}
		if p.JSONMode() {
			t.Error("JSONMode() should default to false")
		}
	})
}

func TestPrinter_Print(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf)

	p.Print("hello", " ", "world")
	p.Printf(" %d", 42)
	p.Println()
	if got, want := buf.String(), "hello world 42\n"; got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}
}

func TestPrinter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf)

	type repo struct {
		Name    string `json:"name"`
		Private bool   `json:"private"`
	}
	if err := p.JSON([]repo{{Name: "acme/widgets", Private: true}}); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	want := "[\n  {\n    \"name\": \"acme/widgets\",\n    \"private\": true\n  }\n]\n"
	if got := buf.String(); got != want {
		t.Errorf("JSON() wrote %q, want %q", got, want)
	}
}

func TestPrinter_JSONError(t *testing.T) {
	t.Parallel()

	if err := New(&bytes.Buffer{}).JSON(make(chan int)); err == nil {
		t.Error("JSON() of a channel should fail")
	}
}

func TestPrinter_IsTerminal(t *testing.T) {
	t.Parallel()

	if New(&bytes.Buffer{}).IsTerminal() {
		t.Error("a buffer is not a terminal")
	}
}

func TestPrinter_Styled(t *testing.T) {
	// Cannot use t.Parallel(): t.Setenv mutates process env
	t.Setenv("CLICOLOR_FORCE", "")

	var buf bytes.Buffer
	New(&buf).Styled("\x1b[1;32mok\x1b[m\n")
	if got := buf.String(); got != "ok\n" {
		t.Errorf("Styled() to a buffer wrote %q, want plain text", got)
	}
}
