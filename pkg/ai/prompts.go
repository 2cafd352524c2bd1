package ai

// EntityExtractionPrompt asks for the person names and movie titles mentioned
// in a question. Placeholders: conversation transcript, question.
const EntityExtractionPrompt = `
# Task Context
You extract named entities from questions about movies and the people who made them.

# Previous Conversation
%s

# Detailed Task Description & Rules
- Extract every person name and every movie title mentioned in the question.
- Keep each name exactly as it is written in the question, including spelling mistakes.
- Use the previous conversation only to understand the question, do not extract entities from it.
- If none are found, return empty lists.
- Do not include any other text.

# Output Formatting
Return ONLY a JSON object with two keys:
{
  "persons": ["<person name>"],
  "movies": ["<movie title>"]
}

# Question
%s

JSON:
`

// CypherGenerationPrompt asks for one read-only Cypher statement answering a
// question. Placeholders: schema description, conversation transcript, question.
const CypherGenerationPrompt = `
# Task Context
You are a Cypher expert. Generate one Cypher statement that queries a movie graph database.
The result is rendered as a force-directed graph, so always return nodes and relationships
using graph patterns like (a)-[r]->(b).

# Schema
%s

# Detailed Task Description & Rules
- Use only the node labels, relationship types and properties in the schema.
- The role attribute is only for the :ACTED_IN relationship type.
- Use this writing [:rel1|rel2|rel3*] for multiple relationship types.
- Always return graph patterns (nodes + relationships), not just nodes.
- Never write to the database.
- Do not include any explanations or apologies.
- Do not include any text except the generated Cypher statement.

# Centrality Filtering
All nodes have centrality scores (eigenvectorCentrality, pageRank, degreeCentrality) that identify important nodes.
When a query might return many nodes (>30), keep the visualization clean:
- ORDER BY n.pageRank DESC LIMIT 30 (or eigenvectorCentrality or degreeCentrality)
- WHERE n.pageRank > 0.001 (adjust the threshold as needed)
For shortest path queries or specific entity lookups no filtering is needed.

# Exclude the Central Node
When the question is about a specific person or movie (e.g. "Alfred Hitchcock's movies", "actors in Titanic"),
do NOT return the queried entity itself. Only return the connected nodes and their relationships.
For "Alfred Hitchcock's movies", return the movies and their connections to other people, but not Alfred Hitchcock.

# Examples
# Specific query, no filtering needed
MATCH (p:Person)-[r:ACTED_IN]->(m:Movie {title: "Titanic"})
RETURN p, r, m

# Broad query, filter by centrality
MATCH (p:Person)-[r:ACTED_IN]->(m:Movie)
WHERE m.year = "1995"
WITH p, r, m
ORDER BY m.eigenvectorCentrality DESC
LIMIT 30
RETURN p, r, m

# Multiple relationship types
MATCH (p:Person)-[r:ACTED_IN|DIRECTED]->(m:Movie)
WHERE m.year >= "2000"
WITH p, r, m
ORDER BY p.eigenvectorCentrality DESC
LIMIT 30
RETURN p, r, m

# Shortest path between two people
MATCH path = shortestPath((p1:Person {name:"Alfred Hitchcock"})-[:ACTED_IN|DIRECTED*]-(p2:Person {name:"François Truffaut"}))
RETURN path

# Previous Conversation
%s

# Question
%s

Cypher Query:
`
