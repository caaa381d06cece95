package service

// Category 一组同主题的提示词建议
type Category struct {
	Name    string
	Prompts []string
}

var catalog = []Category{
	{
		Name: "Dog",
		Prompts: []string{
			"A playful dog running in a park",
			"A dog wearing a funny costume",
			"A dog playing fetch with a ball",
			"A dog lying on a cozy bed",
			"A dog with a bone in its mouth",
		},
	},
	{
		Name: "Cat",
		Prompts: []string{
			"A cat lounging in a sunbeam",
			"A cat playing with a feather toy",
			"A cat hiding in a box",
			"A cat sitting on a windowsill",
			"A cat chasing a laser pointer",
		},
	},
	{
		Name: "Pokemon",
		Prompts: []string{
			"A Pikachu using Thunderbolt",
			"A Charizard flying over a volcano",
			"A Bulbasaur in a grassy field",
			"A Jigglypuff singing a lullaby",
			"A Squirtle in a water fight",
		},
	},
}
