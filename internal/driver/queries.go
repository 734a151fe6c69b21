package driver

const (
	SaveProductQuery = `
		MERGE (p:Product {uuid: $uuid})
		SET p.name = $name,
			p.code = $code,
			p.collection = $collection,
			p.colors = $colors,
			p.finishes = $finishes,
			p.technical_ratings = $technical_ratings,
			p.description = $description,
			p.workspace_id = $workspace_id,
			p.source_document_id = $source_document_id,
			p.chunk_index = $chunk_index,
			p.created_at = $created_at
		RETURN p.uuid AS uuid
	`

	SaveEntityQuery = `
		MERGE (e:Entity {text: $text, type: $type, workspace_id: $workspace_id})
		ON CREATE SET e.uuid = $uuid, e.created_at = $created_at
		SET e.confidence = $confidence
		RETURN e.uuid AS uuid
	`

	SaveMentionQuery = `
		MATCH (p:Product {uuid: $product_uuid})
		MATCH (e:Entity {text: $text, type: $type, workspace_id: $workspace_id})
		MERGE (p)-[m:MENTIONS]->(e)
		SET m.confidence = $confidence,
			m.created_at = $created_at
		RETURN p.uuid AS uuid
	`

	FacetValuesQuery = `
		MATCH (e:Entity {workspace_id: $workspace_id, type: $type})
		RETURN DISTINCT e.text AS text
		ORDER BY text
	`

	ProductEntitiesQuery = `
		MATCH (p:Product {uuid: $product_uuid})-[m:MENTIONS]->(e:Entity)
		RETURN e.type AS type, e.text AS text, e.confidence AS confidence
	`

	WorkspaceProductsQuery = `
		MATCH (p:Product {workspace_id: $workspace_id})
		RETURN p.uuid AS uuid, p.name AS name, p.description AS description,
			p.source_document_id AS source_document_id
		ORDER BY p.created_at
	`

	DeleteDocumentProductsQuery = `
		MATCH (p:Product {source_document_id: $source_document_id})
		DETACH DELETE p
	`
)
