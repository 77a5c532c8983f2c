package domain

// Stats summarises the whole collection regardless of any query.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Important int `json:"important"`
}

// Aggregate counts tasks. Completed+Pending always equals Total.
func Aggregate(tasks []Task) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.Important {
			s.Important++
		}
	}
	return s
}
