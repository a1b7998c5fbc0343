package channelurl

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "bare handle", input: "foo", want: "https://www.youtube.com/@foo", ok: true},
		{name: "handle with at", input: "@foo", want: "https://www.youtube.com/@foo", ok: true},
		{name: "handle punctuation", input: " @foo.bar-baz_1 ", want: "https://www.youtube.com/@foo.bar-baz_1", ok: true},
		{name: "handle url with tab", input: "youtube.com/@Foo/videos", want: "https://www.youtube.com/@Foo", ok: true},
		{name: "trailing slashes", input: "https://www.youtube.com/@foo///", want: "https://www.youtube.com/@foo", ok: true},
		{name: "channel id", input: "https://www.youtube.com/channel/UC123/", want: "https://www.youtube.com/channel/UC123", ok: true},
		{name: "custom url with query", input: "http://m.youtube.com/c/SomeName?view=0", want: "https://www.youtube.com/c/SomeName", ok: true},
		{name: "upper case scheme and host", input: "HTTPS://YouTube.COM/@Case", want: "https://www.youtube.com/@Case", ok: true},
		{name: "short host", input: "youtu.be/@foo", want: "https://www.youtube.com/@foo", ok: true},
		{name: "fragment dropped", input: "www.youtube.com/@foo#about", want: "https://www.youtube.com/@foo", ok: true},
		{name: "escaped handle", input: "youtube.com/@f%C3%BCr", want: "https://www.youtube.com/@f%C3%BCr", ok: true},

		{name: "other host", input: "https://vimeo.com/x", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "blank", input: "   ", ok: false},
		{name: "spaces", input: "not a url", ok: false},
		{name: "lookalike host", input: "notyoutube.com/@foo", ok: false},
		{name: "video page", input: "https://www.youtube.com/watch?v=abc", ok: false},
		{name: "bare host", input: "youtube.com", ok: false},
		{name: "user path", input: "youtube.com/user/legacy", ok: false},
		{name: "empty handle", input: "youtube.com/@/videos", ok: false},
		{name: "non ascii handle", input: "für", ok: false},
		{name: "lone at", input: "@", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v (got %q)", tt.input, ok, tt.ok, got)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, tt := range tests {
			if !tt.ok {
				continue
			}
			first, _ := Normalize(tt.input)
			second, ok := Normalize(first)
			if !ok || second != first {
				t.Errorf("Normalize(Normalize(%q)) = %q, %v; want %q", tt.input, second, ok, first)
			}
		}
	})
}

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		name   string
		cname  string
		url    string
		filter string
		want   bool
	}{
		{name: "blank filter", cname: "Foo", url: "u", filter: "  ", want: true},
		{name: "name match ignores case", cname: "Foo Bar", url: "u", filter: "fOO", want: true},
		{name: "url match", cname: "x", url: "https://www.youtube.com/@baz", filter: "@BAZ", want: true},
		{name: "filter trimmed", cname: "Foo", url: "u", filter: " foo ", want: true},
		{name: "no match", cname: "Foo", url: "https://www.youtube.com/@foo", filter: "qux", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesFilter(tt.cname, tt.url, tt.filter); got != tt.want {
				t.Errorf("MatchesFilter(%q, %q, %q) = %v, want %v", tt.cname, tt.url, tt.filter, got, tt.want)
			}
		})
	}
}

func TestSubFolders(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("NormalizeSubFolderKey", func(t *testing.T) {
		if got := NormalizeSubFolderKey(nil); got != DefaultSubFolderKey {
			t.Errorf("nil = %q", got)
		}
		if got := NormalizeSubFolderKey(str("")); got != DefaultSubFolderKey {
			t.Errorf("empty = %q", got)
		}
		if got := NormalizeSubFolderKey(str("Movies")); got != "Movies" {
			t.Errorf("Movies = %q", got)
		}
	})

	t.Run("NormalizeSubFolderKeys preserves positions", func(t *testing.T) {
		got := NormalizeSubFolderKeys([]*string{str("A"), nil, str(""), str("A")})
		want := []string{"A", DefaultSubFolderKey, DefaultSubFolderKey, "A"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("FormatSubFolderLabel", func(t *testing.T) {
		tests := map[string]string{
			DefaultSubFolderKey:   "root",
			GlobalDefaultSentinel: "global default",
			"Movies":              "__Movies/",
		}
		for in, want := range tests {
			if got := FormatSubFolderLabel(in); got != want {
				t.Errorf("FormatSubFolderLabel(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("predicates", func(t *testing.T) {
		if !IsUsingDefaultSubfolder(str(GlobalDefaultSentinel)) || IsUsingDefaultSubfolder(nil) {
			t.Error("IsUsingDefaultSubfolder")
		}
		if !IsExplicitlyNoSubfolder(nil) || !IsExplicitlyNoSubfolder(str("")) || IsExplicitlyNoSubfolder(str("x")) {
			t.Error("IsExplicitlyNoSubfolder")
		}
		if !IsExplicitlyRoot(str(RootSentinel)) || IsExplicitlyRoot(str("root")) {
			t.Error("IsExplicitlyRoot")
		}
	})

	t.Run("SubFolderLabel", func(t *testing.T) {
		tests := []struct {
			in   *string
			want string
		}{
			{nil, "root"},
			{str(""), "root"},
			{str(RootSentinel), "root"},
			{str(GlobalDefaultSentinel), "global default"},
			{str("music"), "__music/"},
		}
		for _, tt := range tests {
			if got := SubFolderLabel(tt.in); got != tt.want {
				t.Errorf("SubFolderLabel(%v) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})
}
