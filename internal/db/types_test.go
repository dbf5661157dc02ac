package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{"json数组", `["软件灵感","故事片段"]`, []string{"软件灵感", "故事片段"}},
		{"字节json数组", []byte(`["a"]`), []string{"a"}},
		{"原生列表", []string{"x", "y"}, []string{"x", "y"}},
		{"interface列表", []interface{}{"x", 1.0}, []string{"x", "1"}},
		{"旧版单字符串", "软件灵感", []string{"软件灵感"}},
		{"json字符串", `"故事片段"`, []string{"故事片段"}},
		{"空字符串", "", []string{}},
		{"null", "null", []string{}},
		{"nil", nil, []string{}},
		{"数字", "2024", []string{"2024"}},
		{"损坏的json", `["a",`, []string{`["a",`}},
		{"大小写保留", `["AI","ai"]`, []string{"AI", "ai"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTags(tc.raw))
		})
	}
}

// 已经是列表的输入多次归一化结果不变
func TestNormalizeTagsIdempotent(t *testing.T) {
	tags := []string{"软件灵感", "AI"}
	once := NormalizeTags(tags)
	twice := NormalizeTags(once)
	assert.Equal(t, tags, twice)
}

func TestStringListValue(t *testing.T) {
	v, err := StringList(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"软件灵感"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `["软件灵感"]`, v)

	v, err = StringList{"R&D", "<灵感>"}.Value()
	assert.NoError(t, err)
	assert.Equal(t, `["R&D","<灵感>"]`, v)

	var l StringList
	assert.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("A"))
}
