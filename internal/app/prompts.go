package app

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	summarySystemPrompt = "You are a helpful assistant that summarizes academic content."
	askSystemPrompt     = "You are a helpful assistant that answers questions about Coursera course content. " +
		"Provide detailed, accurate responses based on the transcript content provided. " +
		"If the answer is not in the transcripts, clearly state that."
	studySystemPrompt = "You are a helpful teaching assistant that writes study material strictly from the course content provided."

	noInformationMessage = "I don't have any information for your query. " +
		"Please check if you have uploaded relevant transcripts and selected the correct course/week."
	noTextMessage = "I couldn't extract text from any of the transcripts. " +
		"Please check if the PDFs are valid and try again."
)

func summaryPrompt(course string, week int, content string) string {
	return fmt.Sprintf("Generate a concise summary (250-300 words) of the following Coursera content for %s, Week %d. "+
		"Focus on key concepts, important definitions, and main takeaways.\n\nCONTENT:\n%s", course, week, content)
}

func summaryQuery(course string, week int) string {
	return fmt.Sprintf("Key concepts, important definitions and main takeaways of %s, Week %d", course, week)
}

func askPrompt(question, content string) string {
	return fmt.Sprintf("Here is the transcript content:\n\n%s\n\n"+
		"Based only on this content, please answer the following question:\n%s", content, question)
}

func quizInstructions(course string, week int, n int, types []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d quiz questions from the Coursera course '%s', Week %d.\n", n, course, week)
	fmt.Fprintf(&b, "Include the following question types: %s.\n", strings.Join(types, ", "))
	b.WriteString("For each question:\n")
	b.WriteString("1. Provide the question clearly\n")
	b.WriteString("2. For multiple-choice, include 4 options (A, B, C, D) with only one correct answer\n")
	b.WriteString("3. For all questions, provide the correct answer\n")
	b.WriteString("4. Include a brief explanation of why the answer is correct, referencing the course content\n\n")
	b.WriteString("Format each question with a number, followed by the question type in parentheses.")
	return b.String()
}

func examInstructions(course string, weeks []int, n int, difficulty string) string {
	covering := "all weeks"
	if len(weeks) > 0 {
		parts := make([]string, 0, len(weeks))
		for _, w := range weeks {
			parts = append(parts, strconv.Itoa(w))
		}
		covering = "Weeks " + strings.Join(parts, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a practice exam for the Coursera course '%s', covering %s.\n", course, covering)
	fmt.Fprintf(&b, "Generate %d questions at %s difficulty level.\n\n", n, difficulty)
	b.WriteString("Include a mix of:\n")
	b.WriteString("- Multiple-choice questions (4 options)\n")
	b.WriteString("- True/False questions\n")
	b.WriteString("- Short answer questions\n\n")
	b.WriteString("For each question:\n")
	b.WriteString("1. Clearly state the question\n")
	b.WriteString("2. Provide all necessary options for multiple-choice\n")
	b.WriteString("3. Include the correct answer\n")
	b.WriteString("4. Provide a detailed explanation of the answer, referencing specific course content\n\n")
	b.WriteString("The exam should resemble an actual Coursera exam in style and format.\n")
	b.WriteString("Number each question and specify its type in parentheses.")
	return b.String()
}

// contextPrompt wraps retrieved content around an instruction.
func contextPrompt(content, instructions string) string {
	return "Context information is below.\n---------------------\n" + content +
		"\n---------------------\nGiven the context information and not prior knowledge, follow the instructions.\n" +
		"Instructions: " + instructions
}

func noTranscriptsMessage(course string, week *int, weeks []int) string {
	switch {
	case len(weeks) > 0:
		parts := make([]string, 0, len(weeks))
		for _, w := range weeks {
			parts = append(parts, strconv.Itoa(w))
		}
		return fmt.Sprintf("No transcripts found for %s, Weeks %s. Upload transcripts first.", course, strings.Join(parts, ", "))
	case week != nil:
		return fmt.Sprintf("No transcripts found for %s, Week %d. Upload transcripts first.", course, *week)
	default:
		return fmt.Sprintf("No transcripts found for %s. Upload transcripts first.", course)
	}
}
