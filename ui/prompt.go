package ui

import (
	"github.com/swdee/go-headtrack/render"
)

// question is the text asked for every prompt
const question = "Is this a head annotation on the "

// keyHelp lists the keys accepted by the prompts
const keyHelp = "y=Yes   n=No   s=Skip   t=Terminate and Drop"

// promptLines returns the caption lines of a prompt
func promptLines(stage, person string) []render.Line {
	return []render.Line{
		{
			{Text: "[" + stage + "]  ", Color: render.Black, Bold: true},
			{Text: question, Color: render.Black},
			{Text: person, Color: render.Red, Bold: true},
		},
		{
			{Text: keyHelp, Color: render.Gray},
		},
	}
}
