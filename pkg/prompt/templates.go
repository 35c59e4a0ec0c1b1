package prompt

// Templates are deterministic text with {placeholder} slots. Composition is
// pure: no database reads, no LLM calls. Keyed by (conversation kind,
// context mode, operation).

const systemMainTemplate = `You are a reading companion helping a user work through a document one section at a time.

The user is currently reading this section:

{chunk_text}

Answer questions grounded in the document. When the conversation references earlier sections, rely on the switch markers in the history to know which section was active. Be concise and quote the document where it helps.`

const systemHighlightTemplate = `You are a reading companion. The user highlighted a passage in the section below and wants to discuss that passage specifically.

Section:

{chunk_text}

Highlighted passage:

{highlight_text}

Keep answers focused on the highlighted passage, using the surrounding section only for context. Be concise.`

const systemFullContextMainTemplate = `You are a reading companion with the complete document available.

Full document:

{full_document_text}

Answer questions using any part of the document. Cite section numbers when pointing the user somewhere. Be concise.`

const systemFullContextHighlightTemplate = `You are a reading companion with the complete document available. The user highlighted a passage and wants to discuss it.

Full document:

{full_document_text}

Highlighted passage:

{highlight_text}

Keep answers anchored to the highlighted passage, drawing on the rest of the document where relevant. Be concise.`

const userMainTemplate = `{user_message}`

const userHighlightTemplate = `About the highlighted passage: {user_message}`

const questionMainTemplate = `Based on this section of the document, suggest {count} short questions a curious reader might ask next. One question per line, no numbering, no commentary.

Section:

{chunk_text}

Do not repeat any of these previously suggested questions:
{previous_questions}`

const questionHighlightTemplate = `The user highlighted this passage:

{highlight_text}

It appears in this section:

{chunk_text}

Suggest {count} short questions a curious reader might ask about the highlighted passage. One question per line, no numbering, no commentary.

Do not repeat any of these previously suggested questions:
{previous_questions}`

const summaryTemplate = `Summarize the following discussion about a highlighted passage in two or three sentences. Capture what the user wanted to know and what was concluded. Write in the third person.

Highlighted passage:

{highlight_text}

Discussion:

{conversation_history}`
