package model

// DefaultSections returns the built-in report sections. Order matters: the
// assembled report keeps this order, and the "Other Action Items" section
// explicitly excludes topics the earlier sections cover.
func DefaultSections() []SectionSpec {
	return []SectionSpec{
		{
			Title: "Job Application Status",
			Query: "What is the status of my job applications? List any " +
				"emails about online assessments, rejections, interviews, " +
				"or offers.",
			Instructions: "You are a helpful assistant summarizing a " +
				"student's job application status.\n" +
				"- Analyze the email context provided.\n" +
				"- List any updates related to job applications " +
				"(assessments, rejections, interviews, next steps, " +
				"offers).\n" +
				"- If no relevant updates are found, just write: \"No " +
				"updates on job applications found today.\"\n" +
				"- Be concise and list items as bullet points.",
		},
		{
			Title: "Banking Updates",
			Query: "What are the key updates from my bank? List any " +
				"important transactions, statements, or alerts.",
			Instructions: "You are a financial assistant.\n" +
				"- Analyze the banking-related emails provided.\n" +
				"- List any important transactions, low balance warnings, " +
				"statement availability, or security alerts.\n" +
				"- Do *not* list common marketing or promotional emails.\n" +
				"- If nothing important is found, write: \"No important " +
				"banking alerts today.\"\n" +
				"- Use bullet points.",
		},
		{
			Title: "LinkedIn Messages",
			Query: "Did I receive any new messages or important " +
				"notifications from LinkedIn? Summarize them.",
			Instructions: "You are a networking assistant.\n" +
				"- Analyze the LinkedIn notification emails provided.\n" +
				"- Summarize any new *direct messages* or *connection " +
				"requests from people*.\n" +
				"- Ignore \"Someone viewed your profile\" or \"Jobs you " +
				"may like\" notifications.\n" +
				"- If no direct messages are found, write: \"No new direct " +
				"messages or important connections on LinkedIn.\"\n" +
				"- Use bullet points.",
		},
		{
			Title: "Rent & Utilities",
			Query: "Are there any urgent emails about my apartment rent " +
				"or utilities? Look for due dates, bills, or pending " +
				"payments.",
			Instructions: "You are a personal assistant helping with " +
				"bills.\n" +
				"- Analyze the emails for any mention of rent, utilities " +
				"(electric, gas, internet), or lease agreements.\n" +
				"- Extract any upcoming due dates, bill amounts, or urgent " +
				"payment reminders.\n" +
				"- If no rent/utility bills are found, write: \"No new " +
				"information on rent or utilities.\"\n" +
				"- Use bullet points.",
		},
		{
			Title: "Other Action Items",
			Query: "What are all the clear action items, tasks, or " +
				"requests for me from other emails? Do not include items " +
				"from the sections above.",
			Instructions: "You are an executive assistant.\n" +
				"- Analyze the email context provided.\n" +
				"- Identify any clear, direct tasks, requests, or action " +
				"items for the user.\n" +
				"- Do *not* repeat information about jobs, banking, " +
				"LinkedIn, or rent.\n" +
				"- If no other actions are found, write: \"No other " +
				"action items found.\"\n" +
				"- List them as a numbered list.",
		},
	}
}
