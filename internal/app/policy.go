package app

import (
	"github.com/dkeye/Parlor/internal/core"
	"github.com/dkeye/Parlor/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

type Policy interface {
	OnBackPressure(pin domain.Pin, member core.MemberRef) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(pin domain.Pin, member core.MemberRef) BackpressureAction {
	return KickMember
}
