package jsonld

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := ContextLoadFailed("https://example.org/ctx", errors.New("connection refused"))

	if !errors.Is(err, ErrContextLoadFailed) {
		t.Error("errors.Is(err, ErrContextLoadFailed) = false")
	}
	if errors.Is(err, ErrInvalidIdentifier) {
		t.Error("errors.Is(err, ErrInvalidIdentifier) = true")
	}
	if !errors.Is(err, &Error{Code: CodeContextLoadFailed, URL: "https://example.org/ctx"}) {
		t.Error("target with matching URL should match")
	}
	if errors.Is(err, &Error{Code: CodeContextLoadFailed, URL: "https://other.org/"}) {
		t.Error("target with different URL should not match")
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	err := Cancelled(context.Canceled)
	if !errors.Is(err, context.Canceled) {
		t.Error("Cancelled should wrap context.Canceled")
	}

	wrapped := fmt.Errorf("batch: %w", err)
	if !errors.Is(wrapped, ErrCancelled) {
		t.Error("wrapped error should still match ErrCancelled")
	}

	var target *Error
	if !errors.As(wrapped, &target) || target.Code != CodeCancelled {
		t.Error("errors.As should find *Error")
	}
}

func TestError_Message(t *testing.T) {
	err := NewError(CodeInvalidIdentifier, "%q is not absolute", "x").WithPath("/@id")
	got := err.Error()

	for _, want := range []string{"invalid identifier", `"x" is not absolute`, "at /@id"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q; missing %q", got, want)
		}
	}

	load := ContextLoadFailed("https://example.org/ctx", errors.New("404"))
	if !strings.Contains(load.Error(), "<https://example.org/ctx>") {
		t.Errorf("Error() = %q; missing URL", load.Error())
	}
}

func TestError_WithPathKeepsInnermost(t *testing.T) {
	inner := NewError(CodeInvalidValueObject, "bad").WithPath("/a/0")
	outer := inner.WithPath("/a")

	if outer.Path != "/a/0" {
		t.Errorf("Path = %q; want /a/0", outer.Path)
	}

	base := NewError(CodeInvalidValueObject, "bad")
	located := base.WithPath("/b")
	if base.Path != "" {
		t.Error("WithPath must not mutate the receiver")
	}
	if located.Path != "/b" {
		t.Errorf("Path = %q; want /b", located.Path)
	}
}

func TestKeywords(t *testing.T) {
	for _, k := range []string{"@context", "@id", "@type", "@value", "@list", "@set", "@graph"} {
		if !IsKeyword(k) {
			t.Errorf("IsKeyword(%q) = false", k)
		}
	}
	if IsKeyword("@foo") || IsKeyword("id") {
		t.Error("IsKeyword accepted a non-keyword")
	}
	if !LooksLikeKeyword("@foo") {
		t.Error("LooksLikeKeyword(@foo) = false")
	}
	if LooksLikeKeyword("@foo1") || LooksLikeKeyword("@") || LooksLikeKeyword("foo") {
		t.Error("LooksLikeKeyword accepted a non-keyword form")
	}
}
