package fithub

import "github.com/coocood/freecache"

// NewBoardTimer returns a Board whose entries expire by timer
func NewBoardTimer(ttl int, timer freecache.Timer) *Board {
	return newBoard(ttl, freecache.NewCacheCustomTimer(boardSize, timer))
}
