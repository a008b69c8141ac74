package redisserver

import (
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/pkg/resp"
)

func zsetCommands() []*command {
	return []*command{
		{name: "ZADD", arity: -4, flags: flagWrite | flagFast, handler: cmdZAdd},
		{name: "ZSCORE", arity: 3, flags: flagReadOnly | flagFast, handler: cmdZScore},
		{name: "ZREM", arity: -3, flags: flagWrite | flagFast, handler: cmdZRem},
		{name: "ZCARD", arity: 2, flags: flagReadOnly | flagFast, handler: cmdZCard},
		{name: "ZRANK", arity: 3, flags: flagReadOnly | flagFast, handler: cmdZRank},
		{name: "ZRANGE", arity: -4, flags: flagReadOnly, handler: cmdZRange},
	}
}

// ZADD key score member [score member ...]
func cmdZAdd(c *cmdContext) (resp.Element, error) {
	pairs := c.args[1:]
	if len(pairs)%2 != 0 {
		return resp.Element{}, domain.ErrSyntax
	}
	entries := make([]domain.ScoredMember, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		score, err := parseFloat(pairs[i])
		if err != nil {
			return resp.Element{}, err
		}
		entries = append(entries, domain.ScoredMember{Member: string(pairs[i+1]), Score: score})
	}

	var n int
	err := update(c.db, c.args[0], domain.NewSortedSet, func(z *domain.SortedSet) error {
		var err error
		n, err = z.Add(entries...)
		return err
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// ZSCORE key member
func cmdZScore(c *cmdContext) (resp.Element, error) {
	z, ok, err := lookup[*domain.SortedSet](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	score, ok := z.Score(c.arg(1))
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.BulkString(formatFloat(score)), nil
}

// ZREM key member [member ...]
func cmdZRem(c *cmdContext) (resp.Element, error) {
	members := make([]string, len(c.args)-1)
	for i, m := range c.args[1:] {
		members[i] = string(m)
	}
	var n int
	_, err := shrink(c.db, c.args[0], func(z *domain.SortedSet) {
		n = z.Remove(members...)
	})
	if err != nil {
		return resp.Element{}, err
	}
	return resp.Integer(int64(n)), nil
}

// ZCARD key
func cmdZCard(c *cmdContext) (resp.Element, error) {
	z, ok, err := lookup[*domain.SortedSet](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Integer(0), nil
	}
	return resp.Integer(int64(z.Card())), nil
}

// ZRANK key member
func cmdZRank(c *cmdContext) (resp.Element, error) {
	z, ok, err := lookup[*domain.SortedSet](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.NullBulk(), nil
	}
	rank, ok := z.Rank(c.arg(1))
	if !ok {
		return resp.NullBulk(), nil
	}
	return resp.Integer(int64(rank)), nil
}

// ZRANGE key start stop [WITHSCORES]
func cmdZRange(c *cmdContext) (resp.Element, error) {
	withScores := false
	switch len(c.args) {
	case 3:
	case 4:
		if !strings.EqualFold(c.arg(3), "WITHSCORES") {
			return resp.Element{}, domain.ErrSyntax
		}
		withScores = true
	default:
		return resp.Element{}, domain.ErrSyntax
	}

	start, err := parseIndex(c.args[1])
	if err != nil {
		return resp.Element{}, err
	}
	stop, err := parseIndex(c.args[2])
	if err != nil {
		return resp.Element{}, err
	}
	z, ok, err := lookup[*domain.SortedSet](c.db, c.args[0])
	if err != nil {
		return resp.Element{}, err
	}
	if !ok {
		return resp.Array(), nil
	}

	entries := z.Range(start, stop)
	out := make([]resp.Element, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, resp.BulkString(e.Member))
		if withScores {
			out = append(out, resp.BulkString(formatFloat(e.Score)))
		}
	}
	return resp.Array(out...), nil
}
