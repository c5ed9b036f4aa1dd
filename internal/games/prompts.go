package games

// Static prompt pools for the two-player games. Prompts are selected
// uniformly at random per round; no "seen" tracking exists across rounds
// or sessions.

var truthPrompts = map[Category][]string{
	CategoryRomantic: {
		"What was the exact moment you knew you were falling for me?",
		"Which of our dates would you relive tomorrow if you could?",
		"What little thing do I do that makes you feel most loved?",
		"What song secretly reminds you of us?",
		"What is your favorite memory of just the two of us?",
		"When do you miss me the most during the day?",
	},
	CategorySpicy: {
		"What outfit of mine do you find irresistible?",
		"Describe the kiss you remember most vividly.",
		"Where is one place you have always wanted to kiss me?",
		"What compliment from me makes you blush every time?",
		"What is one daydream about us you have never told me?",
		"What is the most attractive thing I do without noticing?",
	},
	CategoryFunny: {
		"What is the most embarrassing thing you have done to impress me?",
		"Which of my habits would you narrate in a nature documentary?",
		"What nickname for me have you kept to yourself until now?",
		"What was going through your head the first time you met my family?",
		"Which of us would survive longer in a zombie movie, honestly?",
		"What is the silliest reason you have ever been annoyed with me?",
	},
	CategoryDeep: {
		"What fear about us have you never said out loud?",
		"What do you hope we are doing ten years from now?",
		"When have you felt closest to me?",
		"What is something you need more of from me?",
		"What lesson did a past heartbreak teach you that helps us now?",
		"What part of yourself are you still learning to share with me?",
	},
}

var darePrompts = map[Category][]string{
	CategoryRomantic: {
		"Write me a three-line love note right now and read it aloud.",
		"Slow dance with me to the next song that plays, no skipping.",
		"Hold my hands, look me in the eyes, and say three things you adore about me.",
		"Plan our next date out loud, start to finish, right now.",
		"Recreate our first kiss as closely as you remember it.",
		"Give me a forehead kiss and tell me your favorite thing about today.",
	},
	CategorySpicy: {
		"Whisper something in my ear that you would never text me.",
		"Give me a one-minute shoulder massage while telling me what you love about my body.",
		"Kiss me somewhere you have never kissed me before.",
		"Trade one item of clothing with me for the rest of the round.",
		"Describe, in detail, your perfect night alone with me.",
		"Let me pick the next prompt, and you have to do it without complaining.",
	},
	CategoryFunny: {
		"Imitate me getting ready in the morning until I laugh.",
		"Speak in an accent of my choosing for the next two rounds.",
		"Serenade me with a made-up song about our last argument.",
		"Do your best impression of me texting you back.",
		"Let me restyle your hair however I want right now.",
		"Send the fifth photo in your gallery to me with a dramatic caption.",
	},
	CategoryDeep: {
		"Tell me about a moment you were proud of me and never mentioned.",
		"Share one worry you have been carrying this week, uninterrupted.",
		"Thank me for something I do not know you noticed.",
		"Apologize for one small thing you have been putting off.",
		"Tell me one way I have changed you for the better.",
		"Describe the home you imagine us growing old in.",
	},
}

// loveQuizPool is the fixed pool the Love Quiz samples from. Each session
// takes quizQuestionsPerSession of these without replacement.
var loveQuizPool = []string{
	"What is my go-to comfort food?",
	"What would I do with a free Saturday and no plans?",
	"What is my biggest pet peeve?",
	"Which movie could I rewatch forever?",
	"What was my first impression of you?",
	"What is my dream vacation destination?",
	"What song do I play when nobody is listening?",
	"What am I most likely to splurge on?",
	"What childhood memory do I bring up the most?",
	"What is my hidden talent?",
	"What small thing always makes my day better?",
	"What am I secretly terrible at?",
	"Who would I call first with big news, after you?",
	"What is my ideal way to spend a rainy evening?",
	"What do I say I will do but never actually do?",
}

const quizQuestionsPerSession = 5

func promptPool(category Category, mode Mode) []string {
	switch mode {
	case ModeTruth:
		return truthPrompts[category]
	case ModeDare:
		return darePrompts[category]
	default:
		return nil
	}
}
