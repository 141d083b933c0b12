package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// firstImg parses doc and returns its first <img> node
func firstImg(t *testing.T, doc string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	require.NotNil(t, found, "no <img> in document")
	return found
}

func TestCaptionFor(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "sibling text node",
			doc:  `<p><img src="a.png">  Hello world, this caption is long  </p>`,
			want: "Hello world, this caption is long",
		},
		{
			name: "siblings joined with a space",
			doc:  `<p><b>Hello</b><img src="a.png"> world caption text here</p>`,
			want: "Hello world caption text here",
		},
		{
			name: "element sibling text concatenated without separator",
			doc:  `<p><img src="a.png"><span> 第一部分 <i>第二部分</i> </span>以及更多的中文说明文字内容</p>`,
			want: "第一部分第二部分 以及更多的中文说明文字内容",
		},
		{
			name: "cjk length counted in characters",
			doc:  `<p><img src="a.png">这是一段足够长的中文说明文字用于测试图片标题</p>`,
			want: "这是一段足够长的中文说明文字用于测试图片标题",
		},
		{
			name: "falls back to ancestor with long text",
			doc:  `<div>Outer description that is definitely long<section><p>Tiny<img src="a.png"></p></section></div>`,
			want: "Outer description that is definitely longTiny",
		},
		{
			name: "ancestor walk stops after three levels",
			doc:  `<div>Very long text that lies four levels up<div><div><div><p>x<img src="a.png"></p></div></div></div></div>`,
			want: "x",
		},
		{
			name: "ancestor needs more than twenty characters",
			doc:  `<section><div>abcdefghijklmnopqrst<p><img src="a.png"></p></div></section>`,
			want: "",
		},
		{
			name: "script and comments ignored",
			doc:  `<p><img src="a.png"><script>var x = "not a caption at all";</script><!-- hidden comment text --></p>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captionFor(firstImg(t, tt.doc))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasMeaningfulText(t *testing.T) {
	assert.True(t, hasMeaningfulText("猫"))
	assert.True(t, hasMeaningfulText("123 a"))
	assert.False(t, hasMeaningfulText(""))
	assert.False(t, hasMeaningfulText("12345 !!! ---"))
	assert.False(t, hasMeaningfulText("ありがとう")) // kana only
	assert.False(t, hasMeaningfulText("ñ"))
}

func TestFirstSrcsetCandidate(t *testing.T) {
	assert.Equal(t, "/s1.png", firstSrcsetCandidate("/s1.png 1x, /s2.png 2x"))
	assert.Equal(t, "/only.png", firstSrcsetCandidate("  /only.png  "))
	assert.Equal(t, "", firstSrcsetCandidate(" , /s2.png 2x"))
}
