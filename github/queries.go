package github

import (
	"context"
	"time"

	"go.uber.org/zap"

	"starhistory/logger"
)

const viewerRepositoriesQuery = `
query ($after: String) {
  viewer {
    login
    repositories(first: 100, after: $after, ownerAffiliations: OWNER, orderBy: {field: STARGAZERS, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        name
        owner {
          login
        }
        stargazerCount
        primaryLanguage {
          name
        }
      }
    }
  }
}`

const stargazersQuery = `
query ($owner: String!, $name: String!, $count: Int!, $before: String) {
  repository(owner: $owner, name: $name) {
    stargazers(last: $count, before: $before) {
      totalCount
      pageInfo {
        hasPreviousPage
        startCursor
      }
      edges {
        starredAt
        node {
          login
        }
      }
    }
  }
}`

const commitHistoryQuery = `
query ($owner: String!, $name: String!, $after: String) {
  repository(owner: $owner, name: $name) {
    defaultBranchRef {
      target {
        ... on Commit {
          history(first: 100, after: $after) {
            pageInfo {
              hasNextPage
              startCursor
              endCursor
            }
            nodes {
              author {
                user {
                  login
                }
              }
            }
          }
        }
      }
    }
  }
}`

type pageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// RepoOwner is the owning account of a listed repository.
type RepoOwner struct {
	Login string `json:"login"`
}

// LanguageNode is a primary language entry.
type LanguageNode struct {
	Name string `json:"name"`
}

// RepoNode is one repository entry of the viewer repository listing.
type RepoNode struct {
	Name            string        `json:"name"`
	Owner           RepoOwner     `json:"owner"`
	StargazerCount  int64         `json:"stargazerCount"`
	PrimaryLanguage *LanguageNode `json:"primaryLanguage"`
}

// RepositoryPage is one forward page of the viewer's owned repositories,
// ordered by stargazer count descending.
type RepositoryPage struct {
	Login       string
	Nodes       []RepoNode
	HasNextPage bool
	EndCursor   *string
}

// ViewerRepositoryPage fetches one page of the viewer's owned repositories
func (c *Client) ViewerRepositoryPage(ctx context.Context, after *string) (*RepositoryPage, error) {
	variables := map[string]any{}
	if after != nil {
		variables["after"] = *after
	}

	var data struct {
		Viewer *struct {
			Login        string `json:"login"`
			Repositories struct {
				PageInfo pageInfo   `json:"pageInfo"`
				Nodes    []RepoNode `json:"nodes"`
			} `json:"repositories"`
		} `json:"viewer"`
	}

	if err := c.post(ctx, viewerRepositoriesQuery, variables, &data); err != nil {
		return nil, err
	}
	if data.Viewer == nil {
		return nil, emptyNode("viewer")
	}

	return &RepositoryPage{
		Login:       data.Viewer.Login,
		Nodes:       data.Viewer.Repositories.Nodes,
		HasNextPage: data.Viewer.Repositories.PageInfo.HasNextPage,
		EndCursor:   data.Viewer.Repositories.PageInfo.EndCursor,
	}, nil
}

// StargazerNode is the user behind a starring event.
type StargazerNode struct {
	Login string `json:"login"`
}

// StargazerEdge is one starring event with the user who starred.
type StargazerEdge struct {
	StarredAt time.Time     `json:"starredAt"`
	Node      StargazerNode `json:"node"`
}

// StargazersPage is one backward page of a repository's stargazers. The
// upstream API only exposes "before cursor" traversal from the most-recent
// end, so pages run newest to oldest.
type StargazersPage struct {
	TotalCount      int64
	Edges           []StargazerEdge
	HasPreviousPage bool
	StartCursor     *string
}

// StargazerPage fetches one backward page of up to count stargazers
func (c *Client) StargazerPage(ctx context.Context, owner, name string, count int64, before *string) (*StargazersPage, error) {
	logger.Debug("Fetching stargazer page",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int64("count", count))

	variables := map[string]any{
		"owner": owner,
		"name":  name,
		"count": count,
	}
	if before != nil {
		variables["before"] = *before
	}

	var data struct {
		Repository *struct {
			Stargazers struct {
				TotalCount int64            `json:"totalCount"`
				PageInfo   pageInfo         `json:"pageInfo"`
				Edges      []*StargazerEdge `json:"edges"`
			} `json:"stargazers"`
		} `json:"repository"`
	}

	if err := c.post(ctx, stargazersQuery, variables, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil {
		return nil, emptyNode("repository")
	}
	if data.Repository.Stargazers.Edges == nil {
		return nil, emptyNode("edges")
	}

	edges := make([]StargazerEdge, 0, len(data.Repository.Stargazers.Edges))
	for _, edge := range data.Repository.Stargazers.Edges {
		if edge != nil {
			edges = append(edges, *edge)
		}
	}

	return &StargazersPage{
		TotalCount:      data.Repository.Stargazers.TotalCount,
		Edges:           edges,
		HasPreviousPage: data.Repository.Stargazers.PageInfo.HasPreviousPage,
		StartCursor:     data.Repository.Stargazers.PageInfo.StartCursor,
	}, nil
}

// CommitUser is the GitHub user linked to a commit author.
type CommitUser struct {
	Login string `json:"login"`
}

// CommitAuthor is the author field of a commit; User is nil when the author
// has no linked GitHub account.
type CommitAuthor struct {
	User *CommitUser `json:"user"`
}

// CommitNode is one commit of the default branch history.
type CommitNode struct {
	Author *CommitAuthor `json:"author"`
}

// AuthorLogin returns the login of the GitHub user linked to the commit
// author, or the empty string when the commit has no linked user.
func (n CommitNode) AuthorLogin() string {
	if n.Author == nil || n.Author.User == nil {
		return ""
	}
	return n.Author.User.Login
}

// CommitPage is one forward page of a repository's default branch history.
type CommitPage struct {
	Nodes       []CommitNode
	HasNextPage bool
	StartCursor *string
	EndCursor   *string
}

// CommitHistoryPage fetches one forward page of the default branch history
func (c *Client) CommitHistoryPage(ctx context.Context, owner, name string, after *string) (*CommitPage, error) {
	logger.Debug("Fetching commit history page",
		zap.String("owner", owner),
		zap.String("name", name))

	variables := map[string]any{
		"owner": owner,
		"name":  name,
	}
	if after != nil {
		variables["after"] = *after
	}

	var data struct {
		Repository *struct {
			DefaultBranchRef *struct {
				Target *struct {
					History *struct {
						PageInfo pageInfo      `json:"pageInfo"`
						Nodes    []*CommitNode `json:"nodes"`
					} `json:"history"`
				} `json:"target"`
			} `json:"defaultBranchRef"`
		} `json:"repository"`
	}

	if err := c.post(ctx, commitHistoryQuery, variables, &data); err != nil {
		return nil, err
	}
	if data.Repository == nil {
		return nil, emptyNode("repository")
	}
	if data.Repository.DefaultBranchRef == nil {
		return nil, emptyNode("defaultBranchRef")
	}
	if data.Repository.DefaultBranchRef.Target == nil {
		return nil, emptyNode("target")
	}
	// A non-commit head decodes with no history object.
	if data.Repository.DefaultBranchRef.Target.History == nil {
		return nil, emptyNode("history")
	}
	history := data.Repository.DefaultBranchRef.Target.History
	if history.Nodes == nil {
		return nil, emptyNode("nodes")
	}

	nodes := make([]CommitNode, 0, len(history.Nodes))
	for _, node := range history.Nodes {
		if node != nil {
			nodes = append(nodes, *node)
		}
	}

	return &CommitPage{
		Nodes:       nodes,
		HasNextPage: history.PageInfo.HasNextPage,
		StartCursor: history.PageInfo.StartCursor,
		EndCursor:   history.PageInfo.EndCursor,
	}, nil
}
