package repositories

import (
	"strings"

	"hostel-backend/internal/db"
	"hostel-backend/internal/models"
)

// searchColumns are matched by the free-text search.
var searchColumns = []string{"title", "description", "name", "room", "address"}

// endOfDay is appended to a date_to value so the whole day is included.
const endOfDay = "T23:59:59.999999"

// buildComplaintWhere translates a filter into a WHERE clause with ?
// placeholders and the matching argument list. User input only ever travels
// as arguments.
func buildComplaintWhere(f models.ComplaintFilter, d db.Dialect) (string, []any) {
	var conds []string
	var args []any

	if q := strings.TrimSpace(f.Search); q != "" {
		p := "%" + escapeLike(q) + "%"
		like := d.LikeOperator()
		parts := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			parts = append(parts, col+" "+like+" ? ESCAPE '\\'")
			args = append(args, p)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.DateFrom != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.DateTo.Format("2006-01-02")+endOfDay)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullIfEmpty(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}
