package content

// Stats are the dashboard counters.
type Stats struct {
	TotalProjects int `json:"total_projects"`
	TotalPosts    int `json:"total_posts"`
	Published     int `json:"published"`
	Drafts        int `json:"drafts"`
}

// ComputeStats counts projects and posts by visibility.
func ComputeStats(projects []Project, posts []BlogPost) Stats {
	s := Stats{TotalProjects: len(projects), TotalPosts: len(posts)}
	for _, p := range projects {
		if p.Published {
			s.Published++
		}
	}
	for _, p := range posts {
		if p.Published {
			s.Published++
		}
	}
	s.Drafts = s.TotalProjects + s.TotalPosts - s.Published
	return s
}
