package prompt

import "strings"

// FallbackPhrase is what the model must answer when the context lacks the answer.
const FallbackPhrase = "I don't know based on the provided files."

// Separator joins context chunks inside a prompt.
const Separator = "\n---\n"

const preamble = "You are a helpful AI coding assistant.\n"

// SummarizePrompt asks for a summary of the whole corpus.
func SummarizePrompt(query string, chunks []string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("The following is the content of a file the user uploaded. Summarize this file. ")
	b.WriteString("ONLY use the content below. If you cannot, say '" + FallbackPhrase + "'\n\n")
	b.WriteString("File content:\n")
	b.WriteString(strings.Join(chunks, Separator))
	b.WriteString("\n\nUser question: " + query + "\n\nAnswer:")
	return b.String()
}

// TargetedPrompt restricts the answer to the retrieved chunks.
func TargetedPrompt(query string, chunks []string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("You MUST ONLY use the following context from the user's uploaded files to answer the question.\n")
	b.WriteString("If the answer is not in the context, you MUST reply exactly: '" + FallbackPhrase + "'\n")
	b.WriteString("Do NOT use any outside knowledge. Do NOT elaborate or add information that is not present in the context.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(chunks, Separator))
	b.WriteString("\n\nUser question: " + query + "\n\nAnswer:")
	return b.String()
}
