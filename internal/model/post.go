package model

import "time"

// Vote is one entry of a post's active vote list.
type Vote struct {
	Voter   string
	Percent int
	Time    time.Time
}

// Post is the content a bid promotes.
type Post struct {
	ID           int64
	Author       string
	Permlink     string
	Title        string
	ParentAuthor string
	Created      time.Time
	ActiveVotes  []Vote
}

// IsReply reports whether the post is a comment on another post.
func (p *Post) IsReply() bool {
	return p.ParentAuthor != ""
}

// VoteBy returns the first vote cast by voter, if any.
func (p *Post) VoteBy(voter string) (Vote, bool) {
	for _, v := range p.ActiveVotes {
		if v.Voter == voter {
			return v, true
		}
	}
	return Vote{}, false
}

// Comment is a reply to be broadcast.
type Comment struct {
	ParentAuthor   string
	ParentPermlink string
	Author         string
	Permlink       string
	Title          string
	Body           string
}
