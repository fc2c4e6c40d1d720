package sqlinline

// API keys for third-party providers (gemini, paddle), one row per provider.

const QSelectIntegrationToken = `--sql 3b0f6e2a-52c4-4d0e-9a51-7c1f0b8d4e26
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 9e4c1d77-08a3-4b6f-b2d5-51e8a0c3f914
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
