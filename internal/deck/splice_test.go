package deck

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const spliceSeed = `{
  "lessons": [
    {
      "id": "l1",
      "title": "Flow",
      "extra": [
        1,
        2
      ],
      "slides": [
        {
          "id": "a",
          "type": "feature",
          "title": "Loops",
          "content": [
            "for",
            "range"
          ],
          "subtitle": null
        },
        {
          "id": 7,
          "type": "mermaid",
          "title": "Graph",
          "diagram": "graph TD; A-->B"
        }
      ]
    }
  ],
  "version": "1.0"
}`

func TestPatchJSON(t *testing.T) {
	tests := []struct {
		name    string
		slideID string
		path    string
		value   string
		want    string
	}{
		{
			name: "list item", slideID: "a", path: "content.1", value: "while",
			want: strings.Replace(spliceSeed, `"range"`, `"while"`, 1),
		},
		{
			name: "null becomes value", slideID: "a", path: "subtitle", value: "Iteration",
			want: strings.Replace(spliceSeed, `"subtitle": null`, `"subtitle": "Iteration"`, 1),
		},
		{
			name: "numeric id and arrows", slideID: "7", path: "diagram", value: "graph LR; A-->C",
			want: strings.Replace(spliceSeed, `"graph TD; A-->B"`, `"graph LR; A-->C"`, 1),
		},
		{
			name: "absent member is appended", slideID: "7", path: "subtitle", value: "Edges",
			want: strings.Replace(spliceSeed, `"diagram": "graph TD; A-->B"`, `"diagram": "graph TD; A-->B",
          "subtitle": "Edges"`, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseEdit(tt.path, tt.value)
			if err != nil {
				t.Fatal(err)
			}
			out, slide, err := PatchJSON([]byte(spliceSeed), "l1", tt.slideID, e)
			if err != nil {
				t.Fatalf("patch: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(out)); diff != "" {
				t.Errorf("unexpected document (-want +got):\n%s", diff)
			}
			if slide.ID.Text != tt.slideID {
				t.Errorf("expected slide %s, got %s", tt.slideID, slide.ID.Text)
			}
		})
	}
}

func TestPatchJSON_ScalarContentReplacesList(t *testing.T) {
	out, slide, err := PatchJSON([]byte(spliceSeed), "l1", "a", SetContent{Value: "just text"})
	if err != nil {
		t.Fatal(err)
	}
	if slide.Content.List {
		t.Error("expected scalar content on the returned slide")
	}
	if !strings.Contains(string(out), `"content": "just text",`) {
		t.Errorf("expected scalar content in place, got:\n%s", out)
	}
}

func TestPatchJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		lessonID string
		slideID  string
		edit     Edit
		want     error
	}{
		{"lesson", "zz", "a", SetTitle{Value: "x"}, ErrLessonNotFound},
		{"slide", "l1", "zz", SetTitle{Value: "x"}, ErrSlideNotFound},
		{"kind", "l1", "a", SetCode{Value: "x"}, ErrFieldNotApplicable},
		{"index", "l1", "a", SetContentItem{Index: 5, Value: "x"}, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := PatchJSON([]byte(spliceSeed), tt.lessonID, tt.slideID, tt.edit)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if out != nil {
				t.Error("expected no output on error")
			}
		})
	}
}
