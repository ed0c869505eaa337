package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnusableReason(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"content page", contentPage, ""},
		{"slider captcha", `<html><body><script src="/_____tmd_____/punish"></script>` + strings.Repeat("x ", 300) + `</body></html>`, reasonChallenge},
		{"empty react root", `<html><body><div id="root"></div></body></html>`, reasonSPAShell},
		{"noscript warning", `<html><body><noscript>Please enable JavaScript to continue</noscript>` + strings.Repeat("word ", 100) + `</body></html>`, reasonNoscript},
		{"thin body", `<html><body><p>Loading...</p></body></html>`, reasonThinBody},
		{"scripts only", `<html><head><script>var a=1</script></head><body></body></html>`, reasonThinBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unusableReason(tt.html))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Mouse - Shop", extractTitle("<html><head><title>\n Mouse - Shop </title></head></html>"))
	assert.Equal(t, "", extractTitle("<html><head></head></html>"))
	assert.Equal(t, "", extractTitle("<title></title>"))
}

func TestExtractVisibleText(t *testing.T) {
	html := `<html><head><title>T</title><style>.a{}</style></head>
		<body><p>Hello</p><script>var x = "hidden"</script><noscript>nojs</noscript><span>World</span></body></html>`

	assert.Equal(t, "Hello World ", extractVisibleText(html))
}
