package search

const keywordPrompt = "Given the search query: '%s', generate %d concise keywords that best capture " +
	"the essence of the query for file searching. Return the keywords as a comma-separated list."

const directoryPrompt = "Given the query: '%s', which of the following subdirectories under '%s' " +
	"is most likely to contain relevant files? Respond with the exact subdirectory name. " +
	"If none seem relevant, respond with 'none'.\nSubdirectories: %s"

const refinePrompt = "Refine the following search query to be more effective for finding relevant files: '%s'. " +
	"Respond with the refined query only."

const rerankPrompt = "Given the query: '%s', which of the following files is most likely the one " +
	"the user is looking for? Respond with the exact file path only.\nFiles:\n%s"
