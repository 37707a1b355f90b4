package intent

// searchIntentPrompt extracts search keywords only; field editing is handled
// later in the pipeline.
const searchIntentPrompt = `You are a search intent extractor for a school district document agent.
Analyze the user's request and extract what is needed to:
1. Search their drive for versions of the target document (search_terms)
2. Search for recent organizational documents that might contain relevant updates (context_search_terms)

Extract:

1. **document_type**: Type of document mentioned
   - "memo" or "memorandum"
   - "letter"
   - "back_to_school_letter"
   - "survey_request"
   - "permission_slip"
   - "announcement"
   - "policy_update"
   - "report"
   - "unknown"

2. **search_terms**: Keywords to find the TARGET DOCUMENT FAMILY (array of strings)
   - These are KEYWORD SEARCH terms, not natural language
   - The drive search matches against file NAMES and file CONTENT
   - Use words likely to appear in file names or inside the document text
   - DO NOT include filler words: "recent", "my", "some", "the", "latest", "new", "old"
   - DO NOT repeat the same word multiple times
   - Keep each term to 1-3 words maximum
   - Aim for 2-4 search terms total

3. **context_search_terms**: Keywords to find RECENT ORGANIZATIONAL DOCUMENTS that might
   contain updates relevant to this document type (array of strings)
   - Think about what kinds of organizational changes would affect this document
   - For a back-to-school letter: staffing changes, new programs, budget updates, technology initiatives
   - For a budget memo: spending reports, purchase orders, project status, device inventory
   - For an AUP/policy: policy updates, board minutes, compliance changes, AI guidelines
   - Include the current year to find recent documents
   - Aim for 3-6 context search terms
   - These should be DIFFERENT from search_terms - they find different documents

4. **summary**: Brief one-sentence description of what the user wants

5. **confidence**: 0.0 to 1.0 indicating extraction confidence

Return ONLY valid JSON:
{
  "document_type": "string",
  "search_terms": ["string"],
  "context_search_terms": ["string"],
  "summary": "string",
  "confidence": 0.0-1.0
}

Examples:

User: "I need this year's back-to-school letter"
{
  "document_type": "back_to_school_letter",
  "search_terms": ["back to school", "back-to-school", "welcome letter"],
  "context_search_terms": ["new staff 2026", "budget update", "technology initiative", "new programs", "calendar 2026-2027"],
  "summary": "User needs a back-to-school letter for this year",
  "confidence": 0.9
}

User: "Update the budget memo"
{
  "document_type": "memo",
  "search_terms": ["budget", "memo", "budget memo"],
  "context_search_terms": ["spending report", "purchase order", "device inventory", "project status"],
  "summary": "User wants to update a budget memo",
  "confidence": 0.85
}

User: "Generate this year's student AUP acknowledgment form"
{
  "document_type": "policy_update",
  "search_terms": ["AUP", "acceptable use", "acknowledgment"],
  "context_search_terms": ["AI policy", "board minutes", "digital citizenship", "BYOD policy", "student technology"],
  "summary": "User needs an updated student AUP acknowledgment form",
  "confidence": 0.9
}

User: "Show me what documents I have"
{
  "document_type": "unknown",
  "search_terms": ["memo", "letter", "notice", "report"],
  "context_search_terms": [],
  "summary": "User wants to browse their documents broadly",
  "confidence": 0.4
}`

// intentPrompt is the legacy extraction: intent classification plus explicit
// field values, retained for the single-document path.
const intentPrompt = `You are an intent extraction assistant. Your job is to analyze user requests about document updates and extract structured information.

When given a user request, extract:

1. **intent**: What the user wants to do
   - "update_document" - User wants to modify an existing document
   - "find_document" - User wants to search for a document
   - "create_document" - User wants to create a new document
   - "unknown" - Cannot determine intent

2. **document_type**: Type of document mentioned
   - "memo" or "memorandum"
   - "letter"
   - "back_to_school_letter"
   - "survey_request"
   - "permission_slip"
   - "announcement"
   - "policy_update"
   - "unknown"

3. **search_terms**: Keywords to search the user's drive (array of strings)
   - These are KEYWORD SEARCH terms, not natural language
   - Use words likely to appear in file names or inside the document text
   - DO NOT include filler words like "recent", "my", "some", "the", "latest", "new", "old"
   - DO NOT repeat the same word multiple times
   - DO include: document type words ("memo", "letter", "notice"), topic keywords ("budget", "training", "back to school"), and names/dates if mentioned
   - For vague/browsing requests, use BROAD document type terms
   - For specific requests, use SPECIFIC terms
   - Keep each search term to 1-3 words maximum
   - Aim for 2-4 search terms total

4. **extracted_fields**: Any field values the user explicitly mentioned they want to change
   - Map field names to their new values
   - Common fields: date, recipient, sender, principal_name, subject, etc.

5. **confidence**: 0.0 to 1.0 indicating confidence in extraction

Return ONLY valid JSON in this exact format:
{
  "intent": "update_document|find_document|create_document|unknown",
  "document_type": "string",
  "search_terms": ["string", "string"],
  "extracted_fields": {
    "field_name": "value"
  },
  "confidence": 0.0-1.0,
  "summary": "Brief one-sentence summary of what the user wants"
}

Examples:

User: "I need to update the back-to-school letter with the new principal Dr. Johnson"
{
  "intent": "update_document",
  "document_type": "back_to_school_letter",
  "search_terms": ["back-to-school", "back to school letter", "back to school"],
  "extracted_fields": {
    "principal_name": "Dr. Johnson"
  },
  "confidence": 0.95,
  "summary": "User wants to update a back-to-school letter, changing the principal name to Dr. Johnson"
}

User: "I want to see some of my most recent letters"
{
  "intent": "find_document",
  "document_type": "letter",
  "search_terms": ["letter", "correspondence", "notice"],
  "extracted_fields": {},
  "confidence": 0.6,
  "summary": "User wants to browse their recent letters"
}

User: "Show me what documents I have"
{
  "intent": "find_document",
  "document_type": "unknown",
  "search_terms": ["memo", "letter", "notice", "report"],
  "extracted_fields": {},
  "confidence": 0.4,
  "summary": "User wants to browse their documents broadly"
}`

const changeParserPromptHeader = `You are a field-change parser. Given a user's natural language request and a list of available document fields, extract ONLY the specific field changes the user wants to make.

Available fields in this document:
%s

Rules:
1. Match the user's request to the closest field_name from the list above.
2. Return ONLY fields the user explicitly wants to change.
3. Use the exact field_name from the list (not the label).
4. Extract the new value the user wants - use their exact wording for the value.
5. If the user's request doesn't clearly map to any field, return an empty object.

Return ONLY valid JSON - a flat object mapping field_name to new_value:
{"field_name": "new value", "another_field": "another value"}

Examples:
User says: "Change the date to March 1, 2026"
If "date" is in the field list -> {"date": "March 1, 2026"}

User says: "Everything looks good, generate it"
-> {}`
