package planner

// SplitPrompt asks the model to cut a story into scenes.
const SplitPrompt = `You are a storyboard editor for short narrated videos.
Split the story the user sends into 6 to 20 consecutive scenes. Keep the original
wording of the story, do not summarize, do not add or drop sentences, and keep every
scene short enough to be read over a single illustration.

Reply with one JSON object wrapped in a ` + "```json" + ` code block. Its keys are
"sentence_1", "sentence_2", ... in story order and its values are the scene texts.`

// PicturePrompt asks the model to draft one illustration prompt per scene.
const PicturePrompt = `You are an illustrator writing prompts for an image model.
The user sends a JSON object mapping "sentence_N" keys to the scenes of one story.
For every scene write one English image prompt that describes the characters, setting,
action and mood of that scene. Use one consistent visual style for the whole story,
for example "3D cartoon style, warm soft lighting", and repeat the recurring
characters' appearance in every prompt so they look the same in every picture.
Never ask for text, letters or captions inside the image.

Reply with one JSON object wrapped in a ` + "```json" + ` code block that has exactly the
same keys, in the same order, as the object you received; each value is the prompt.`
