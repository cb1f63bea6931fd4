package selection

import "github.com/wfunc/fighterselect/models"

type nopMessages struct{}

func (nopMessages) DisplayMessage(models.LocalizedMessage) {}
func (nopMessages) SetEnabled(bool)                        {}

type nopButton struct{}

func (nopButton) SetEnabled(bool) {}
func (nopButton) SetVisible(bool) {}
