package sqlinline

// Entitlement facts live in users.properties (jsonb). Ids are compared as
// text so both uuid and opaque auth-provider ids work.

const QSelectUserEntitlement = `--sql e8639e01-9b53-4e6c-ae9e-cc08fc206b4d
select
    id::text,
    coalesce(email, ''),
    coalesce(properties, '{}'::jsonb)
from users
where id::text = $1::text
limit 1;
`

const QSelectUserEntitlementByEmail = `--sql 88d93b34-6b54-4099-8bbd-7462d1cbaa91
select
    id::text,
    coalesce(email, ''),
    coalesce(properties, '{}'::jsonb)
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserProperties = `--sql c47ced74-ed3d-47ab-a93f-eb3c3664cc90
update users
set properties = $2::jsonb,
    updated_at = now()
where id::text = $1::text;
`

const QMergeUserProperties = `--sql bfa7bb39-d50b-4064-b8a7-f9c1e106e343
update users
set properties = coalesce(properties, '{}'::jsonb) || $2::jsonb,
    updated_at = now()
where id::text = $1::text
returning id::text, coalesce(email, ''), properties;
`
