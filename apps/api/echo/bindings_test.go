package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
)

func Test_Ordering_Bind(t *testing.T) {
	allowed := []string{"title", "created_at", "updated_at"}

	tests := []struct {
		name  string
		query string
		want  []core.DBOrdering
	}{
		{name: "no param", query: ""},
		{name: "empty param", query: "ordering="},
		{
			name: "asc and desc", query: "ordering=title,-created_at",
			want: []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "created_at", Ascending: false}},
		},
		{
			name: "unknown fields dropped", query: "ordering=teacher_id,-updated_at",
			want: []core.DBOrdering{{Field: "updated_at", Ascending: false}},
		},
		{name: "raw sql dropped", query: "ordering=created_at+DESC,title--"},
		{
			name: "whitespace trimmed", query: "ordering=+title+,+-updated_at",
			want: []core.DBOrdering{{Field: "title", Ascending: true}, {Field: "updated_at", Ascending: false}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())

			ord := new(Ordering)
			ord.Bind(ctx, allowed...)
			if !reflect.DeepEqual(ord.Orderings, tt.want) {
				t.Errorf("Bind() orderings = %v; want %v", ord.Orderings, tt.want)
			}
		})
	}
}
