package quest

import "strconv"

// Graph is a personalized quest for a child: a small branching story
// where every choice points at another step.
type Graph struct {
	Title string `yaml:"title"`
	Intro string `yaml:"intro"`
	Steps []Step `yaml:"steps"`
}

// Step is one scene of the quest. A step without choices is terminal.
type Step struct {
	ID      string   `yaml:"id"`
	Text    string   `yaml:"text"`
	Choices []Choice `yaml:"choices,omitempty"`
}

// Choice leads from one step to the next
type Choice struct {
	Text string `yaml:"text"`
	Next string `yaml:"next"`
}

// Render flattens the graph into publishable text, steps in declaration
// order with their choices listed under each scene.
func (g *Graph) Render() string {
	out := g.Intro
	for _, step := range g.Steps {
		out += "\n\n" + step.Text
		for i, choice := range step.Choices {
			out += "\n" + formatChoice(i, choice)
		}
	}
	return out
}

func formatChoice(idx int, c Choice) string {
	return strconv.Itoa(idx+1) + ") " + c.Text
}
