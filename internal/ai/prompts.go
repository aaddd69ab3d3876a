package ai

import (
	"fmt"
	"strings"
)

// captionSystemPrompt builds the system prompt for describing one photo.
// The event's keywords are injected as grounding context.
func captionSystemPrompt(contextKeywords []string) string {
	keywords := "no keywords"
	if len(contextKeywords) > 0 {
		keywords = strings.Join(contextKeywords, ", ")
	}

	return fmt.Sprintf(`You are an expert at writing captions that describe the scene in a photo.

Look at this photo and write a caption following these rules:

Rules:
- Keywords for this photo: %s
- Describe the objects, people, background, and situation naturally and factually.
- Write grammatically complete sentences. Avoid hedging phrases like "seems to be" or "appears to be".
- Describe clearly what is visible in the photo.

Never do the following:
- Mention any text or writing visible in the photo.
- Mention technical details such as the photo being rotated.
- State or guess the date, time, or season.`, keywords)
}

// extractPrompt asks the vision model for a one-line diary caption and three
// concrete keywords, as strict JSON.
const extractPrompt = `Write one diary sentence in English describing this image, as if recording today.
Make sure the sentence names the main subject of the image concretely (for example: canola flowers, pork cutlet, a walk on the beach).

Then extract exactly 3 English keywords for the image, centered on the most important dish names or place names.
- For food, prefer the full dish name over individual ingredients (for example: kimchi nabe, bibimbap, bulgogi).
- Do not just list ingredients; include the dish's full name or type.
- Use the specific dish name rather than a broad category (samgyeopsal, not "Korean barbecue").
- Keep compound subjects together as one keyword ("canola flower", not "canola" and "flower").
- For places, prefer specific proper names (for example: Eiffel Tower, Jeju Island).
- Use a specific named location rather than a generic one ("jeju sea", not "sea").
- Skip overly generic words (spicy, beautiful, yellow); pick concrete words close to real things.

Respond with only this JSON, no explanation:

{
"caption": "an evocative but informative English sentence",
"keywords": ["concrete keyword 1", "concrete keyword 2", "concrete keyword 3"]
}`

// composeSystemPrompt sets the voice and constraints for the diary paragraph.
const composeSystemPrompt = `You are a diary writer who sums up the day in a factual, understated voice.
Do not lean into sentiment; explain the situations in the photos, the mood, and the day's emotions naturally.

Rules:
- Use the visual descriptions (captions) of the day's events together with their place, emotion, and keyword details. Keep the tone plain and honest, written casually in the first person, not overly sentimental.
- End every sentence in simple declarative form.
- Do not state exact times; follow the natural flow of the day.
- Weave the events into one continuous narrative, not a plain list, so the day reads as meaningful.
- Sentences must flow smoothly without cutting off mid-thought.
- Keep the length around 300 to 500 characters.`

// composeUserPrompt formats the day's event drafts into the user message.
func composeUserPrompt(drafts []DiaryDraft) string {
	var sb strings.Builder
	sb.WriteString("Here is the information about today's events. Use it to write one diary paragraph.\n\n[Today's events]\n")

	for _, d := range drafts {
		fmt.Fprintf(&sb, "Event %d:\n", d.EventID)
		fmt.Fprintf(&sb, "- Time: %s\n", orUnknown(d.StartTime, "no time recorded"))
		fmt.Fprintf(&sb, "- Place: %s\n", orUnknown(d.Place, "unknown place"))
		fmt.Fprintf(&sb, "- Emotion: %s\n", orUnknown(d.Emotion, "unknown emotion"))
		fmt.Fprintf(&sb, "- Keywords: %s\n", orUnknown(strings.Join(d.Keywords, ", "), "no keywords"))
		fmt.Fprintf(&sb, "- Summary: %s\n", orUnknown(strings.Join(d.Captions, " "), "no photos"))
	}

	return sb.String()
}

// translatePrompt asks for keyword translations as a bare JSON list.
func translatePrompt(keywords []string) string {
	return fmt.Sprintf(`Translate the following English keywords naturally into Korean:
%s

Respond only with a JSON list in exactly this shape:
["translated word 1", "translated word 2", "translated word 3"]
Do not add any other explanation.`, strings.Join(keywords, ", "))
}

func orUnknown(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
